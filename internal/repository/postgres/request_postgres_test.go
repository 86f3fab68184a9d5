package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinsim/internal/model"
	"clinsim/internal/repository"
)

var requestCols = []string{"id", "patient_id", "group_id", "kind", "test_type", "reason", "actor_account_id", "sign_off_name", "sign_off_role", "status", "created_at", "approved_at", "approved_by"}

func pendingRequestRow(id string, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(requestCols).
		AddRow(id, "patient-1", "group-a", "blood_test", "full_blood_count", "suspected anaemia", "shared-login-3", "J. Harker", "medical student", "pending", createdAt, nil, nil)
}

func TestInvestigationRequestPostgres_Create(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewInvestigationRequestPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	req := &model.InvestigationRequest{
		ID:             "req-1",
		PatientID:      "patient-1",
		GroupID:        "group-a",
		Kind:           model.KindBloodTest,
		TestType:       "full_blood_count",
		Reason:         "suspected anaemia",
		ActorAccountID: "shared-login-3",
		SignOff:        model.SignOff{Name: "J. Harker", Role: "medical student"},
		Status:         model.StatusPending,
		CreatedAt:      now,
	}

	mock.ExpectQuery("INSERT INTO investigation_requests").
		WithArgs(req.ID, req.PatientID, req.GroupID, req.Kind, req.TestType, req.Reason, req.ActorAccountID, req.SignOff.Name, req.SignOff.Role, req.Status, now).
		WillReturnRows(pendingRequestRow("req-1", now))

	result, err := repo.Create(ctx, req)

	assert.NoError(t, err)
	assert.Equal(t, "req-1", result.ID)
	assert.Equal(t, model.StatusPending, result.Status)
	assert.Empty(t, result.Grants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvestigationRequestPostgres_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewInvestigationRequestPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM investigation_requests WHERE id = ?").
		WithArgs("req-1").
		WillReturnRows(pendingRequestRow("req-1", time.Now()))

	grantRows := sqlmock.NewRows([]string{"id", "request_id", "file_id", "page_range"}).
		AddRow("grant-1", "req-1", "file-1", "1-3,7").
		AddRow("grant-2", "req-1", "file-2", nil)
	mock.ExpectQuery("SELECT (.+) FROM file_grants WHERE request_id = ANY").
		WithArgs([]string{"req-1"}).
		WillReturnRows(grantRows)

	req, err := repo.FindByID(ctx, "req-1")

	require.NoError(t, err)
	require.Len(t, req.Grants, 2)
	assert.Equal(t, "1-3,7", *req.Grants[0].PageRange)
	assert.True(t, req.Grants[1].WholeFile())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvestigationRequestPostgres_Approve(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	pageRange := "2-4"

	t.Run("flips status and writes grants in one transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		defer db.Close()
		repo := NewInvestigationRequestPostgres(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE investigation_requests").
			WithArgs("req-1", model.StatusCompleted, now, "inst-1", model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO file_grants").
			WithArgs(sqlmock.AnyArg(), "req-1", "file-1", &pageRange).
			WillReturnResult(sqlmock.NewResult(0, 1))

		approvedRow := sqlmock.NewRows(requestCols).
			AddRow("req-1", "patient-1", "group-a", "blood_test", "full_blood_count", "suspected anaemia", "shared-login-3", "J. Harker", "medical student", "completed", now, now, "inst-1")
		mock.ExpectQuery("SELECT (.+) FROM investigation_requests WHERE id = ?").
			WithArgs("req-1").
			WillReturnRows(approvedRow)
		mock.ExpectCommit()

		req, err := repo.Approve(ctx, "req-1", "inst-1", now, []model.FileGrant{
			{FileID: "file-1", PageRange: &pageRange},
		})

		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, req.Status)
		require.Len(t, req.Grants, 1)
		assert.Equal(t, "req-1", req.Grants[0].RequestID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent loser matches zero rows and rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		defer db.Close()
		repo := NewInvestigationRequestPostgres(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE investigation_requests").
			WithArgs("req-1", model.StatusCompleted, now, "inst-2", model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.Approve(ctx, "req-1", "inst-2", now, nil)

		assert.ErrorIs(t, err, repository.ErrRequestNotPending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvestigationRequestPostgres_ListByPatient(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewInvestigationRequestPostgres(db)
	ctx := context.Background()

	t.Run("attaches grants per request", func(t *testing.T) {
		rows := pendingRequestRow("req-1", time.Now())
		mock.ExpectQuery("SELECT (.+) FROM investigation_requests WHERE patient_id = ?").
			WithArgs("patient-1").
			WillReturnRows(rows)
		mock.ExpectQuery("SELECT (.+) FROM file_grants WHERE request_id = ANY").
			WithArgs([]string{"req-1"}).
			WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "file_id", "page_range"}).
				AddRow("grant-1", "req-1", "file-1", nil))

		reqs, err := repo.ListByPatient(ctx, "patient-1")

		require.NoError(t, err)
		require.Len(t, reqs, 1)
		assert.Len(t, reqs[0].Grants, 1)
	})

	t.Run("no requests skips the grant query", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM investigation_requests WHERE patient_id = ?").
			WithArgs("patient-2").
			WillReturnRows(sqlmock.NewRows(requestCols))

		reqs, err := repo.ListByPatient(ctx, "patient-2")

		require.NoError(t, err)
		assert.Empty(t, reqs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
