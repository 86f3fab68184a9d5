package model

import "time"

// VisibilityOverride is an instructor's explicit show/hide decision for a
// (file, group) pair. It is keyed uniquely per pair; a later write replaces
// the earlier one. An override takes precedence over request grants in both
// directions: hide is a hard stop, show is an unconditional release.
type VisibilityOverride struct {
	FileID    string    `json:"file_id"`
	GroupID   string    `json:"group_id"`
	Visible   bool      `json:"visible"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

/// VisibilityAuditRecord captures one override write: who flipped what, when,
// and from which previous value. OldVisible is nil on the first write for a
// pair. The audit trail is append-only and survives file deletion.
type VisibilityAuditRecord struct {
	ID         string    `json:"id"`
	FileID     string    `json:"file_id"`
	GroupID    string    `json:"group_id"`
	OldVisible *bool     `json:"old_visible,omitempty"`
	NewVisible bool      `json:"new_visible"`
	ChangedBy  string    `json:"changed_by"`
	ChangedAt  time.Time `json:"changed_at"`
}
