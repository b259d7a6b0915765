package identity

// Role is a capability tag checked explicitly at the boundary dispatcher.
type Role string

const (
	// RolePublic means no identity required. It is never persisted on an
	// account; it only gates routes.
	RolePublic Role = "public"
	// RoleUser is an end-user account.
	RoleUser Role = "user"
	// RoleAdmin is an administrator account.
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RolePublic, RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Persistable reports whether the role may be stored on an account record.
func (r Role) Persistable() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
