package model

// Role is the authenticated account's role tier. Authorization decisions use
// this role, never the declared sign-off role.
type Role string

const (
	RoleStudent     Role = "student"
	RoleInstructor  Role = "instructor"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// InstructorTier reports whether the role may approve requests and set
// visibility overrides.
func (r Role) InstructorTier() bool {
	return r == RoleInstructor || r == RoleAdmin
}

// CanManageFiles reports whether the role may register or delete patient
// files (the file-management collaborator boundary).
func (r Role) CanManageFiles() bool {
	return r == RoleInstructor || r == RoleCoordinator || r == RoleAdmin
}

// Actor is the authenticated identity performing an operation. AccountID
// identifies the (possibly shared) login; GroupID is empty for staff roles.
type Actor struct {
	AccountID string `json:"account_id"`
	Role      Role   `json:"role"`
	GroupID   string `json:"group_id,omitempty"`
}
