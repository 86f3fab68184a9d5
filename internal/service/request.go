package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"clinsim/internal/apperr"
	"clinsim/internal/model"
	"clinsim/internal/pagerange"
	"clinsim/internal/repository"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrRequestNotFound = errors.New("investigation request not found")
)

var validate = validator.New()

// SubmitRequestInput carries a new investigation request. The sign-off
// fields are the declared identity typed into the form; the submitting
// account comes from the actor and is kept separate on purpose (student
// logins are shared by the whole group).
type SubmitRequestInput struct {
	PatientID   string            `json:"patient_id" validate:"required"`
	Kind        model.RequestKind `json:"kind" validate:"required"`
	TestType    string            `json:"test_type" validate:"required"`
	Reason      string            `json:"reason" validate:"required"`
	SignOffName string            `json:"sign_off_name" validate:"required"`
	SignOffRole string            `json:"sign_off_role" validate:"required"`
}

// GrantInput is one (file, optional page range) pair an approver releases.
// A nil or empty PageRange releases the whole file.
type GrantInput struct {
	FileID    string  `json:"file_id"`
	PageRange *string `json:"page_range,omitempty"`
}

// RequestService defines the use cases around investigation requests:
// submission by a student group and approval by an instructor.
type RequestService interface {
	// Submit validates and persists a new pending request on behalf of the
	// actor's group.
	Submit(ctx context.Context, actor model.Actor, in SubmitRequestInput) (*model.InvestigationRequest, error)

	// Approve validates the approver's authority and every grant, then
	// atomically flips the request to completed with the grants recorded.
	// A second approval of the same request fails with InvalidStateError.
	Approve(ctx context.Context, actor model.Actor, requestID string, grants []GrantInput) (*model.InvestigationRequest, error)

	// Get returns a request with its grants.
	Get(ctx context.Context, id string) (*model.InvestigationRequest, error)

	// ListByPatient returns every request raised against the patient.
	ListByPatient(ctx context.Context, patientID string) ([]model.InvestigationRequest, error)
}

type requestService struct {
	requests repository.InvestigationRequestRepository
	files    repository.PatientFileRepository
}

// NewRequestService constructs a new RequestService.
func NewRequestService(requests repository.InvestigationRequestRepository, files repository.PatientFileRepository) RequestService {
	return &requestService{requests: requests, files: files}
}

func (s *requestService) Submit(ctx context.Context, actor model.Actor, in SubmitRequestInput) (*model.InvestigationRequest, error) {
	if actor.GroupID == "" {
		return nil, apperr.Authorization("a requesting group is required to submit")
	}
	if err := validate.Struct(in); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) && len(verr) > 0 {
			field := strings.ToLower(verr[0].Field())
			return nil, apperr.ValidationField(field, "is required")
		}
		return nil, apperr.Validation("invalid request payload")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, apperr.ValidationField("reason", "is required")
	}
	if strings.TrimSpace(in.SignOffName) == "" || strings.TrimSpace(in.SignOffRole) == "" {
		return nil, apperr.ValidationField("sign_off", "name and role are required")
	}
	if !model.ValidTestType(in.Kind, in.TestType) {
		return nil, apperr.ValidationField("test_type", "%q is not a valid %s test", in.TestType, in.Kind)
	}

	req := &model.InvestigationRequest{
		ID:             uuid.New().String(),
		PatientID:      in.PatientID,
		GroupID:        actor.GroupID,
		Kind:           in.Kind,
		TestType:       in.TestType,
		Reason:         strings.TrimSpace(in.Reason),
		ActorAccountID: actor.AccountID,
		SignOff: model.SignOff{
			Name: strings.TrimSpace(in.SignOffName),
			Role: strings.TrimSpace(in.SignOffRole),
		},
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	stored, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return stored, nil
}

func (s *requestService) Approve(ctx context.Context, actor model.Actor, requestID string, grants []GrantInput) (*model.InvestigationRequest, error) {
	if requestID == "" {
		return nil, ErrIDRequired
	}
	if !actor.Role.InstructorTier() {
		return nil, apperr.Authorization("role %s may not approve requests", actor.Role)
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status != model.StatusPending {
		return nil, apperr.InvalidState("request %s is already %s", requestID, req.Status)
	}

	fileGrants, err := s.validateGrants(ctx, req, grants)
	if err != nil {
		return nil, err
	}

	approved, err := s.requests.Approve(ctx, requestID, actor.AccountID, time.Now().UTC(), fileGrants)
	if err != nil {
		// The guarded UPDATE lost against a concurrent approval; surface
		// the same state error the precondition check would have raised.
		if errors.Is(err, repository.ErrRequestNotPending) {
			return nil, apperr.InvalidState("request %s is already %s", requestID, model.StatusCompleted)
		}
		return nil, fmt.Errorf("approve request: %w", err)
	}
	return approved, nil
}

// validateGrants checks every grant against the known files and the page
// range grammar. Page-count enforcement is advisory: applied only when the
// file's page count is known, otherwise deferred to render time.
func (s *requestService) validateGrants(ctx context.Context, req *model.InvestigationRequest, grants []GrantInput) ([]model.FileGrant, error) {
	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		if g.FileID == "" {
			return nil, apperr.Validation("grant with empty file id")
		}
		ids = append(ids, g.FileID)
	}

	known := map[string]model.PatientFile{}
	if len(ids) > 0 {
		files, err := s.files.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load granted files: %w", err)
		}
		for _, f := range files {
			known[f.ID] = f
		}
	}

	out := make([]model.FileGrant, 0, len(grants))
	for _, g := range grants {
		f, ok := known[g.FileID]
		if !ok {
			return nil, apperr.ValidationField(g.FileID, "unknown file")
		}
		if f.PatientID != req.PatientID {
			return nil, apperr.ValidationField(g.FileID, "file does not belong to the request's patient")
		}

		grant := model.FileGrant{FileID: g.FileID}
		if g.PageRange != nil && strings.TrimSpace(*g.PageRange) != "" {
			if !f.RequiresPagination {
				return nil, apperr.ValidationField(g.FileID, "page range on a file without pagination")
			}
			set, err := pagerange.Parse(*g.PageRange)
			if err != nil {
				return nil, apperr.ValidationField(g.FileID, "invalid page range %q: %v", *g.PageRange, err)
			}
			if f.PageCount != nil && set.Max() > *f.PageCount {
				return nil, apperr.ValidationField(g.FileID, "page range exceeds the file's %d pages", *f.PageCount)
			}
			// Stored verbatim (trimmed) for wire compatibility; consumers
			// re-parse rather than rely on a canonical form.
			verbatim := strings.TrimSpace(*g.PageRange)
			grant.PageRange = &verbatim
		}
		out = append(out, grant)
	}
	return out, nil
}

func (s *requestService) Get(ctx context.Context, id string) (*model.InvestigationRequest, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *requestService) ListByPatient(ctx context.Context, patientID string) ([]model.InvestigationRequest, error) {
	if patientID == "" {
		return nil, ErrIDRequired
	}
	return s.requests.ListByPatient(ctx, patientID)
}
