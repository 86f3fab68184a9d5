package model

import "time"

// RequestKind distinguishes the two clinical order families.
type RequestKind string

const (
	KindBloodTest RequestKind = "blood_test"
	KindImaging   RequestKind = "imaging"
)

// TestTypes lists the valid test types per request kind. A submitted test
// type must be a member of its kind's list.
var TestTypes = map[RequestKind][]string{
	KindBloodTest: {
		"full_blood_count",
		"urea_electrolytes",
		"liver_function",
		"coagulation",
		"blood_culture",
		"crossmatch",
	},
	KindImaging: {
		"xray_chest",
		"xray_abdomen",
		"ct_head",
		"ct_abdomen_pelvis",
		"ultrasound_abdomen",
		"mri",
	},
}

// ValidTestType reports whether testType belongs to the kind's enumeration.
func ValidTestType(kind RequestKind, testType string) bool {
	for _, t := range TestTypes[kind] {
		if t == testType {
			return true
		}
	}
	return false
}

// RequestStatus is the lifecycle state of an investigation request.
// The only transition is pending -> completed, applied exactly once.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
)

// SignOff is the declared name/role typed by whoever filled the form.
// Student accounts are routinely shared by a whole group, so this is kept
// separate from the authenticated account identity and is never used for
// authorization, only for audit display.
type SignOff struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// FileGrant binds one patient file to an optional page-range restriction.
// A nil PageRange means the whole file was released. Grants are immutable
// once written and exist only on completed requests.
type FileGrant struct {
	ID        string  `json:"id"`
	RequestID string  `json:"request_id"`
	FileID    string  `json:"file_id"`
	PageRange *string `json:"page_range,omitempty"`
}

// WholeFile reports whether the grant releases the entire file.
func (g FileGrant) WholeFile() bool {
	return g.PageRange == nil || *g.PageRange == ""
}

// InvestigationRequest is a clinical order (blood test or imaging) raised
// by a student group against a patient, subject to instructor approval.
type InvestigationRequest struct {
	ID             string        `json:"id"`
	PatientID      string        `json:"patient_id"`
	GroupID        string        `json:"group_id"`
	Kind           RequestKind   `json:"kind"`
	TestType       string        `json:"test_type"`
	Reason         string        `json:"reason"`
	ActorAccountID string        `json:"actor_account_id"`
	SignOff        SignOff       `json:"sign_off"`
	Status         RequestStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy     *string       `json:"approved_by,omitempty"`
	Grants         []FileGrant   `json:"grants"`
}
