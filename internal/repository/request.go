package repository

import (
	"context"
	"time"

	"clinsim/internal/model"
)

// InvestigationRequestRepository defines data access for investigation
// requests and their grants.
type InvestigationRequestRepository interface {
	// Create inserts a new request in pending state with no grants.
	Create(ctx context.Context, req *model.InvestigationRequest) (*model.InvestigationRequest, error)

	// FindByID returns a request with its grants loaded. Missing rows
	// surface as sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.InvestigationRequest, error)

	// ListByPatient returns every request raised against the patient,
	// grants included. The access evaluator consumes this.
	ListByPatient(ctx context.Context, patientID string) ([]model.InvestigationRequest, error)

	// Approve atomically flips the request from pending to completed and
	// writes the grant rows in the same transaction. Either everything is
	// recorded or nothing is. Returns ErrRequestNotPending when the
	// request was not in pending state.
	Approve(ctx context.Context, requestID, approvedBy string, approvedAt time.Time, grants []model.FileGrant) (*model.InvestigationRequest, error)
}
