package model

import "time"

// FileCategory classifies an uploaded patient document. The category drives
// the default-visibility policy: admission documents are visible to every
// group out of the box, everything else stays hidden until granted.
type FileCategory string

const (
	CategoryAdmission   FileCategory = "admission"
	CategoryPathology   FileCategory = "pathology"
	CategoryImaging     FileCategory = "imaging"
	CategoryDiagnostics FileCategory = "diagnostics"
	CategoryLabResults  FileCategory = "lab_results"
	CategoryOther       FileCategory = "other"
)

// Valid reports whether c is one of the known categories.
func (c FileCategory) Valid() bool {
	switch c {
	case CategoryAdmission, CategoryPathology, CategoryImaging,
		CategoryDiagnostics, CategoryLabResults, CategoryOther:
		return true
	}
	return false
}

// VisibilityPolicy maps a file category to its default visibility when no
// override and no grant applies. Kept as data rather than a switch so the
// policy can be extended without touching the evaluator.
type VisibilityPolicy map[FileCategory]bool

// DefaultVisibilityPolicy returns the stock policy: admission documents are
// default-visible, all other categories default-hidden.
func DefaultVisibilityPolicy() VisibilityPolicy {
	return VisibilityPolicy{
		CategoryAdmission:   true,
		CategoryPathology:   false,
		CategoryImaging:     false,
		CategoryDiagnostics: false,
		CategoryLabResults:  false,
		CategoryOther:       false,
	}
}

// DefaultVisible reports the fallback visibility for a category. Unknown
// categories are hidden.
func (p VisibilityPolicy) DefaultVisible(c FileCategory) bool {
	return p[c]
}

// PatientFile is the metadata record for an uploaded patient document.
// The bytes themselves live in object storage under StoragePath.
// PageCount is nil until the page total is known (declared at upload or
// determined lazily by the external viewer).
type PatientFile struct {
	ID                 string       `json:"id"`
	PatientID          string       `json:"patient_id"`
	Category           FileCategory `json:"category"`
	RequiresPagination bool         `json:"requires_pagination"`
	PageCount          *int         `json:"page_count,omitempty"`
	Filename           string       `json:"filename"`
	StoragePath        string       `json:"storage_path"`
	Size               int64        `json:"size"`
	ContentType        string       `json:"content_type"`
	CreatedAt          time.Time    `json:"created_at"`
}

// Patient is the identity anchor that owns files and investigation requests.
// Demographic edits happen in the surrounding application and never affect
// access state; the core only needs the identifier.
type Patient struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
