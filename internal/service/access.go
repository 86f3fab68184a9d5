package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinsim/internal/model"
	"clinsim/internal/pagerange"
	"clinsim/internal/repository"
)

var ErrFileNotFound = errors.New("patient file not found")

// AccessService answers "may this viewer see this file, and which pages".
// Evaluation is read-only and safe to call concurrently with approvals;
// a just-approved grant becomes visible on the next read.
type AccessService interface {
	Evaluate(ctx context.Context, viewer model.Actor, fileID string) (model.AccessDecision, error)
}

type accessService struct {
	files      repository.PatientFileRepository
	requests   repository.InvestigationRequestRepository
	visibility repository.VisibilityRepository
	policy     model.VisibilityPolicy
}

// NewAccessService constructs an AccessService evaluating against the given
// default-visibility policy.
func NewAccessService(
	files repository.PatientFileRepository,
	requests repository.InvestigationRequestRepository,
	visibility repository.VisibilityRepository,
	policy model.VisibilityPolicy,
) AccessService {
	return &accessService{files: files, requests: requests, visibility: visibility, policy: policy}
}

func (s *accessService) Evaluate(ctx context.Context, viewer model.Actor, fileID string) (model.AccessDecision, error) {
	if fileID == "" {
		return model.Denied(), ErrIDRequired
	}

	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Denied(), ErrFileNotFound
		}
		return model.Denied(), err
	}

	// Staff shortcut needs no further reads.
	if staffViewer(viewer.Role) {
		return model.FullAccess(), nil
	}

	var override *model.VisibilityOverride
	ov, err := s.visibility.Effective(ctx, fileID, viewer.GroupID)
	switch {
	case err == nil:
		override = ov
	case errors.Is(err, sql.ErrNoRows):
		// no override, fall through to grant evaluation
	default:
		return model.Denied(), err
	}

	requests, err := s.requests.ListByPatient(ctx, file.PatientID)
	if err != nil {
		return model.Denied(), err
	}

	return Decide(s.policy, viewer, file, override, requests)
}

// Decide computes the access decision from already-loaded state. Ordered,
// first match wins:
//
//  1. staff viewers get full access unconditionally;
//  2. an explicit override is decisive in both directions (hide beats any
//     grant, show needs no grant);
//  3. grants on the group's completed requests: any whole-file grant wins,
//     otherwise the granted page ranges are unioned;
//  4. the category default-visibility policy is the fallback of last resort.
func Decide(
	policy model.VisibilityPolicy,
	viewer model.Actor,
	file *model.PatientFile,
	override *model.VisibilityOverride,
	requests []model.InvestigationRequest,
) (model.AccessDecision, error) {
	if staffViewer(viewer.Role) {
		return model.FullAccess(), nil
	}

	if override != nil {
		if !override.Visible {
			return model.Denied(), nil
		}
		return model.FullAccess(), nil
	}

	var (
		granted    pagerange.Set
		anyGrant   bool
		wholeGrant bool
	)
	for _, req := range requests {
		if req.Status != model.StatusCompleted || req.GroupID != viewer.GroupID {
			continue
		}
		for _, g := range req.Grants {
			if g.FileID != file.ID {
				continue
			}
			anyGrant = true
			if g.WholeFile() {
				wholeGrant = true
				continue
			}
			set, err := pagerange.Parse(*g.PageRange)
			if err != nil {
				// A stored grant that no longer parses is a data defect;
				// fail loudly rather than treat it as a whole-file release.
				return model.Denied(), fmt.Errorf("grant %s on file %s: %w", g.ID, g.FileID, err)
			}
			granted = granted.Union(set)
		}
	}

	if !anyGrant {
		if policy.DefaultVisible(file.Category) {
			return model.FullAccess(), nil
		}
		return model.Denied(), nil
	}
	if wholeGrant {
		return model.FullAccess(), nil
	}
	return model.RestrictedTo(granted), nil
}

// staffViewer reports whether the role sees every file it manages without
// consulting overrides or grants.
func staffViewer(r model.Role) bool {
	return r == model.RoleInstructor || r == model.RoleCoordinator || r == model.RoleAdmin
}
