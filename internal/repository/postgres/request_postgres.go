package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"clinsim/internal/model"
	"clinsim/internal/repository"
)

// InvestigationRequestPostgres is a PostgreSQL implementation of
// repository.InvestigationRequestRepository.
type InvestigationRequestPostgres struct {
	db *sql.DB
}

// NewInvestigationRequestPostgres creates a new request repository.
func NewInvestigationRequestPostgres(db *sql.DB) *InvestigationRequestPostgres {
	return &InvestigationRequestPostgres{db: db}
}

var _ repository.InvestigationRequestRepository = (*InvestigationRequestPostgres)(nil)

const requestColumns = `id, patient_id, group_id, kind, test_type, reason, actor_account_id, sign_off_name, sign_off_role, status, created_at, approved_at, approved_by`

func scanRequest(row interface{ Scan(...any) error }) (*model.InvestigationRequest, error) {
	var req model.InvestigationRequest
	if err := row.Scan(
		&req.ID,
		&req.PatientID,
		&req.GroupID,
		&req.Kind,
		&req.TestType,
		&req.Reason,
		&req.ActorAccountID,
		&req.SignOff.Name,
		&req.SignOff.Role,
		&req.Status,
		&req.CreatedAt,
		&req.ApprovedAt,
		&req.ApprovedBy,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a new pending request and returns the stored record.
func (r *InvestigationRequestPostgres) Create(ctx context.Context, req *model.InvestigationRequest) (*model.InvestigationRequest, error) {
	const q = `
		INSERT INTO investigation_requests (id, patient_id, group_id, kind, test_type, reason, actor_account_id, sign_off_name, sign_off_role, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + requestColumns
	row := r.db.QueryRowContext(ctx, q,
		req.ID,
		req.PatientID,
		req.GroupID,
		req.Kind,
		req.TestType,
		req.Reason,
		req.ActorAccountID,
		req.SignOff.Name,
		req.SignOff.Role,
		req.Status,
		req.CreatedAt,
	)
	out, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	out.Grants = []model.FileGrant{}
	return out, nil
}

// FindByID fetches a single request with its grants.
func (r *InvestigationRequestPostgres) FindByID(ctx context.Context, id string) (*model.InvestigationRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM investigation_requests WHERE id = $1`
	req, err := scanRequest(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	grants, err := r.grantsFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	req.Grants = grants[id]
	if req.Grants == nil {
		req.Grants = []model.FileGrant{}
	}
	return req, nil
}

// ListByPatient returns every request raised against the patient, grants
// included, newest first.
func (r *InvestigationRequestPostgres) ListByPatient(ctx context.Context, patientID string) ([]model.InvestigationRequest, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM investigation_requests
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]model.InvestigationRequest, 0)
	ids := make([]string, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		req.Grants = []model.FileGrant{}
		reqs = append(reqs, *req)
		ids = append(ids, req.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return reqs, nil
	}

	grants, err := r.grantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		if g := grants[reqs[i].ID]; g != nil {
			reqs[i].Grants = g
		}
	}
	return reqs, nil
}

// Approve flips the status and writes grants in one transaction. The UPDATE
// is guarded by status = 'pending' so a concurrent second approval matches
// zero rows and the whole transaction rolls back with ErrRequestNotPending.
func (r *InvestigationRequestPostgres) Approve(ctx context.Context, requestID, approvedBy string, approvedAt time.Time, grants []model.FileGrant) (*model.InvestigationRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qFlip = `
		UPDATE investigation_requests
		SET status = $2, approved_at = $3, approved_by = $4
		WHERE id = $1 AND status = $5
	`
	res, err := tx.ExecContext(ctx, qFlip, requestID, model.StatusCompleted, approvedAt, approvedBy, model.StatusPending)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, repository.ErrRequestNotPending
	}

	const qGrant = `
		INSERT INTO file_grants (id, request_id, file_id, page_range)
		VALUES ($1, $2, $3, $4)
	`
	stored := make([]model.FileGrant, 0, len(grants))
	for _, g := range grants {
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		g.RequestID = requestID
		if _, err := tx.ExecContext(ctx, qGrant, g.ID, g.RequestID, g.FileID, g.PageRange); err != nil {
			return nil, err
		}
		stored = append(stored, g)
	}

	const qFetch = `SELECT ` + requestColumns + ` FROM investigation_requests WHERE id = $1`
	req, err := scanRequest(tx.QueryRowContext(ctx, qFetch, requestID))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	req.Grants = stored
	return req, nil
}

// grantsFor loads grants for a set of request IDs grouped by request.
func (r *InvestigationRequestPostgres) grantsFor(ctx context.Context, requestIDs []string) (map[string][]model.FileGrant, error) {
	const q = `
		SELECT id, request_id, file_id, page_range
		FROM file_grants
		WHERE request_id = ANY($1)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, q, requestIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]model.FileGrant)
	for rows.Next() {
		var g model.FileGrant
		if err := rows.Scan(&g.ID, &g.RequestID, &g.FileID, &g.PageRange); err != nil {
			return nil, err
		}
		out[g.RequestID] = append(out[g.RequestID], g)
	}
	return out, rows.Err()
}
