package repository

import (
	"context"

	"clinsim/internal/model"
)

// PatientFileRepository defines data access for patient file metadata using
// SQL queries only. No business logic here — strictly persistence operations.
type PatientFileRepository interface {
	// Create inserts a new patient file record and returns the stored row.
	Create(ctx context.Context, file *model.PatientFile) (*model.PatientFile, error)

	// FindByID returns a file by its ID. Missing rows surface as
	// sql.ErrNoRows for the service layer to translate.
	FindByID(ctx context.Context, id string) (*model.PatientFile, error)

	// FindByIDs returns the subset of the given IDs that exist. Used by
	// batch operations to validate identifiers up front; order of the
	// result is unspecified.
	FindByIDs(ctx context.Context, ids []string) ([]model.PatientFile, error)

	// ListByPatient returns a paginated list of a patient's files and the
	// total row count.
	ListByPatient(ctx context.Context, patientID string, pq PageQuery) (*PageResult[model.PatientFile], error)

	// UpdateClassification corrects a file's category, pagination flag and
	// page count. The only in-place mutation files support.
	UpdateClassification(ctx context.Context, id string, category model.FileCategory, requiresPagination bool, pageCount *int) (*model.PatientFile, error)

	// Delete removes a file row by ID. It returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id string) error
}
