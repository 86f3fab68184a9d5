package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"clinsim/internal/model"
	"clinsim/internal/repository"
)

// VisibilityPostgres is a PostgreSQL implementation of
// repository.VisibilityRepository. Overrides live in an upserted
// (file, group)-keyed table; every write also appends to the audit table.
type VisibilityPostgres struct {
	db *sql.DB
}

// NewVisibilityPostgres creates a new VisibilityPostgres repository.
func NewVisibilityPostgres(db *sql.DB) *VisibilityPostgres {
	return &VisibilityPostgres{db: db}
}

var _ repository.VisibilityRepository = (*VisibilityPostgres)(nil)

// SetOverrides upserts all overrides and their audit records in one
// transaction. Any failure rolls back the whole batch.
func (r *VisibilityPostgres) SetOverrides(ctx context.Context, overrides []model.VisibilityOverride) error {
	if len(overrides) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const qOld = `SELECT visible FROM visibility_overrides WHERE file_id = $1 AND group_id = $2`
	const qUpsert = `
		INSERT INTO visibility_overrides (file_id, group_id, visible, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (file_id, group_id)
		DO UPDATE SET visible = EXCLUDED.visible, changed_by = EXCLUDED.changed_by, changed_at = EXCLUDED.changed_at
	`
	const qAudit = `
		INSERT INTO visibility_audit (id, file_id, group_id, old_visible, new_visible, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, ov := range overrides {
		var oldVisible *bool
		var prev bool
		err := tx.QueryRowContext(ctx, qOld, ov.FileID, ov.GroupID).Scan(&prev)
		switch {
		case err == nil:
			oldVisible = &prev
		case err == sql.ErrNoRows:
			// first write for this pair
		default:
			return err
		}

		if _, err := tx.ExecContext(ctx, qUpsert, ov.FileID, ov.GroupID, ov.Visible, ov.ChangedBy, ov.ChangedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, qAudit, uuid.New().String(), ov.FileID, ov.GroupID, oldVisible, ov.Visible, ov.ChangedBy, ov.ChangedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Effective returns the current override for the pair, or sql.ErrNoRows.
func (r *VisibilityPostgres) Effective(ctx context.Context, fileID, groupID string) (*model.VisibilityOverride, error) {
	const q = `
		SELECT file_id, group_id, visible, changed_by, changed_at
		FROM visibility_overrides
		WHERE file_id = $1 AND group_id = $2
	`
	var ov model.VisibilityOverride
	if err := r.db.QueryRowContext(ctx, q, fileID, groupID).Scan(
		&ov.FileID,
		&ov.GroupID,
		&ov.Visible,
		&ov.ChangedBy,
		&ov.ChangedAt,
	); err != nil {
		return nil, err
	}
	return &ov, nil
}

// ListByFile returns all overrides for a file across groups.
func (r *VisibilityPostgres) ListByFile(ctx context.Context, fileID string) ([]model.VisibilityOverride, error) {
	const q = `
		SELECT file_id, group_id, visible, changed_by, changed_at
		FROM visibility_overrides
		WHERE file_id = $1
		ORDER BY group_id
	`
	rows, err := r.db.QueryContext(ctx, q, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.VisibilityOverride, 0)
	for rows.Next() {
		var ov model.VisibilityOverride
		if err := rows.Scan(&ov.FileID, &ov.GroupID, &ov.Visible, &ov.ChangedBy, &ov.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, ov)
	}
	return out, rows.Err()
}

// DeleteByFile prunes overrides for a deleted file. The audit table is left
// untouched.
func (r *VisibilityPostgres) DeleteByFile(ctx context.Context, fileID string) error {
	const q = `DELETE FROM visibility_overrides WHERE file_id = $1`
	_, err := r.db.ExecContext(ctx, q, fileID)
	return err
}

// ListAudit returns the audit trail for a file, oldest first.
func (r *VisibilityPostgres) ListAudit(ctx context.Context, fileID string) ([]model.VisibilityAuditRecord, error) {
	const q = `
		SELECT id, file_id, group_id, old_visible, new_visible, changed_by, changed_at
		FROM visibility_audit
		WHERE file_id = $1
		ORDER BY changed_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.VisibilityAuditRecord, 0)
	for rows.Next() {
		var rec model.VisibilityAuditRecord
		if err := rows.Scan(&rec.ID, &rec.FileID, &rec.GroupID, &rec.OldVisible, &rec.NewVisible, &rec.ChangedBy, &rec.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
