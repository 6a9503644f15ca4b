package entity

// Role is the flat authorization role attached to an account
// kept as a closed enum for domain use
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// DefaultRole is assigned when registration does not specify one.
const DefaultRole = RoleTeacher

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}
