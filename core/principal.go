package core

import "strings"

// Roles
const (
	// Admin
	RoleAdmin           = "admin:"
	RoleAdminOwner      = "admin:owner"
	RoleAdminAccountant = "admin:accountant"

	// Instructor
	RoleInstructor = "instructor:"
)

// Principal is the authenticated caller as resolved by the (outer) API layer.
type Principal struct {
	ID           string
	Username     string
	Email        string
	Roles        []string
	InstructorID string // set when the principal is an instructor
}

func (p Principal) RoleStartsWith(prefix string) bool {
	for _, role := range p.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.RoleStartsWith(RoleAdmin)
}

// IsInstructor reports whether the principal acts as an instructor.
// Admin roles take precedence.
func (p Principal) IsInstructor() bool {
	return !p.IsAdmin() && p.RoleStartsWith(RoleInstructor)
}

// CanReadInstructor applies the data-scoping rule: instructors only see their own records.
func (p Principal) CanReadInstructor(instructorID string) bool {
	if p.IsInstructor() {
		return p.InstructorID != "" && p.InstructorID == instructorID
	}
	return true
}
