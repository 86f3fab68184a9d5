package repository

import (
	"context"

	"clinsim/internal/model"
)

// VisibilityRepository defines data access for per-(file, group) visibility
// overrides and their audit trail.
type VisibilityRepository interface {
	// SetOverrides upserts every override in one transaction, appending
	// one audit record per write (capturing the previous value, if any).
	// All-or-nothing: a failure on any item leaves no override written.
	SetOverrides(ctx context.Context, overrides []model.VisibilityOverride) error

	// Effective returns the current override for the pair, or sql.ErrNoRows
	// when none exists (the "undefined" case the evaluator falls through).
	Effective(ctx context.Context, fileID, groupID string) (*model.VisibilityOverride, error)

	// ListByFile returns all overrides for a file across groups.
	ListByFile(ctx context.Context, fileID string) ([]model.VisibilityOverride, error)

	// DeleteByFile prunes every override for a deleted file. Audit records
	// are never pruned.
	DeleteByFile(ctx context.Context, fileID string) error

	// ListAudit returns the append-only audit trail for a file, oldest
	// first.
	ListAudit(ctx context.Context, fileID string) ([]model.VisibilityAuditRecord, error)
}
