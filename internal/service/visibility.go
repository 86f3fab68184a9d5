package service

import (
	"context"
	"fmt"
	"time"

	"clinsim/internal/apperr"
	"clinsim/internal/model"
	"clinsim/internal/repository"
)

// VisibilityService manages instructor show/hide overrides for (file, group)
// pairs. Every write lands in the append-only audit trail.
type VisibilityService interface {
	// Set writes one override.
	Set(ctx context.Context, actor model.Actor, fileID, groupID string, visible bool) error

	// BulkSet applies the same override to many files, all-or-nothing. If
	// any file id is unknown it returns an AggregateError naming every
	// invalid id and writes nothing.
	BulkSet(ctx context.Context, actor model.Actor, fileIDs []string, groupID string, visible bool) error

	// Overrides returns all current overrides for a file.
	Overrides(ctx context.Context, fileID string) ([]model.VisibilityOverride, error)

	// Audit returns the override audit trail for a file, oldest first.
	Audit(ctx context.Context, fileID string) ([]model.VisibilityAuditRecord, error)
}

type visibilityService struct {
	files      repository.PatientFileRepository
	visibility repository.VisibilityRepository
}

// NewVisibilityService constructs a new VisibilityService.
func NewVisibilityService(files repository.PatientFileRepository, visibility repository.VisibilityRepository) VisibilityService {
	return &visibilityService{files: files, visibility: visibility}
}

func (s *visibilityService) Set(ctx context.Context, actor model.Actor, fileID, groupID string, visible bool) error {
	return s.BulkSet(ctx, actor, []string{fileID}, groupID, visible)
}

func (s *visibilityService) BulkSet(ctx context.Context, actor model.Actor, fileIDs []string, groupID string, visible bool) error {
	if !actor.Role.InstructorTier() {
		return apperr.Authorization("role %s may not change visibility", actor.Role)
	}
	if groupID == "" {
		return apperr.ValidationField("group_id", "is required")
	}
	if len(fileIDs) == 0 {
		return apperr.ValidationField("file_ids", "at least one file id is required")
	}

	// Validate the whole batch before writing anything.
	found, err := s.files.FindByIDs(ctx, fileIDs)
	if err != nil {
		return fmt.Errorf("validate file ids: %w", err)
	}
	known := make(map[string]struct{}, len(found))
	for _, f := range found {
		known[f.ID] = struct{}{}
	}
	var invalid []string
	for _, id := range fileIDs {
		if _, ok := known[id]; !ok {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return apperr.Aggregate("unknown file ids", invalid)
	}

	now := time.Now().UTC()
	overrides := make([]model.VisibilityOverride, 0, len(fileIDs))
	for _, id := range fileIDs {
		overrides = append(overrides, model.VisibilityOverride{
			FileID:    id,
			GroupID:   groupID,
			Visible:   visible,
			ChangedBy: actor.AccountID,
			ChangedAt: now,
		})
	}

	if err := s.visibility.SetOverrides(ctx, overrides); err != nil {
		return fmt.Errorf("set overrides: %w", err)
	}
	return nil
}

func (s *visibilityService) Overrides(ctx context.Context, fileID string) ([]model.VisibilityOverride, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	return s.visibility.ListByFile(ctx, fileID)
}

func (s *visibilityService) Audit(ctx context.Context, fileID string) ([]model.VisibilityAuditRecord, error) {
	if fileID == "" {
		return nil, ErrIDRequired
	}
	return s.visibility.ListAudit(ctx, fileID)
}
