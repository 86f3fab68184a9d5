package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinsim/internal/model"
)

func TestVisibilityPostgres_SetOverrides(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	override := func(fileID string) model.VisibilityOverride {
		return model.VisibilityOverride{
			FileID:    fileID,
			GroupID:   "group-a",
			Visible:   false,
			ChangedBy: "inst-1",
			ChangedAt: now,
		}
	}

	t.Run("first write audits a nil previous value", func(t *testing.T) {
		db, mock := newMockDB(t)
		defer db.Close()
		repo := NewVisibilityPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT visible FROM visibility_overrides").
			WithArgs("file-1", "group-a").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO visibility_overrides").
			WithArgs("file-1", "group-a", false, "inst-1", now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO visibility_audit").
			WithArgs(sqlmock.AnyArg(), "file-1", "group-a", nil, false, "inst-1", now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SetOverrides(ctx, []model.VisibilityOverride{override("file-1")})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("subsequent write audits the replaced value", func(t *testing.T) {
		db, mock := newMockDB(t)
		defer db.Close()
		repo := NewVisibilityPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT visible FROM visibility_overrides").
			WithArgs("file-1", "group-a").
			WillReturnRows(sqlmock.NewRows([]string{"visible"}).AddRow(true))
		mock.ExpectExec("INSERT INTO visibility_overrides").
			WithArgs("file-1", "group-a", false, "inst-1", now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO visibility_audit").
			WithArgs(sqlmock.AnyArg(), "file-1", "group-a", true, false, "inst-1", now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SetOverrides(ctx, []model.VisibilityOverride{override("file-1")})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mid-batch failure rolls back everything", func(t *testing.T) {
		db, mock := newMockDB(t)
		defer db.Close()
		repo := NewVisibilityPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT visible FROM visibility_overrides").
			WithArgs("file-1", "group-a").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO visibility_overrides").
			WithArgs("file-1", "group-a", false, "inst-1", now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO visibility_audit").
			WithArgs(sqlmock.AnyArg(), "file-1", "group-a", nil, false, "inst-1", now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT visible FROM visibility_overrides").
			WithArgs("file-2", "group-a").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := repo.SetOverrides(ctx, []model.VisibilityOverride{override("file-1"), override("file-2")})

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		defer db.Close()
		repo := NewVisibilityPostgres(db)

		assert.NoError(t, repo.SetOverrides(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVisibilityPostgres_Effective(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewVisibilityPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"file_id", "group_id", "visible", "changed_by", "changed_at"}).
			AddRow("file-1", "group-a", false, "inst-1", time.Now())

		mock.ExpectQuery("SELECT (.+) FROM visibility_overrides").
			WithArgs("file-1", "group-a").
			WillReturnRows(rows)

		ov, err := repo.Effective(ctx, "file-1", "group-a")

		require.NoError(t, err)
		assert.False(t, ov.Visible)
	})

	t.Run("undefined pair", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM visibility_overrides").
			WithArgs("file-1", "group-b").
			WillReturnError(sql.ErrNoRows)

		ov, err := repo.Effective(ctx, "file-1", "group-b")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, ov)
	})
}

func TestVisibilityPostgres_ListAudit(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewVisibilityPostgres(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "file_id", "group_id", "old_visible", "new_visible", "changed_by", "changed_at"}).
		AddRow("a1", "file-1", "group-a", nil, false, "inst-1", time.Now().Add(-time.Hour)).
		AddRow("a2", "file-1", "group-a", false, true, "inst-1", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM visibility_audit").
		WithArgs("file-1").
		WillReturnRows(rows)

	records, err := repo.ListAudit(ctx, "file-1")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Nil(t, records[0].OldVisible)
	require.NotNil(t, records[1].OldVisible)
	assert.False(t, *records[1].OldVisible)
	assert.True(t, records[1].NewVisible)
}

func TestVisibilityPostgres_DeleteByFile(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	repo := NewVisibilityPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM visibility_overrides WHERE file_id = ?").
		WithArgs("file-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	assert.NoError(t, repo.DeleteByFile(ctx, "file-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
