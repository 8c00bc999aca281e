package auth

// UserRole is the user's role
type UserRole string

const (
	// RoleMember is the default role assigned at signup
	RoleMember UserRole = "member"
	// RoleStaff is an elevated role for support operations
	RoleStaff UserRole = "staff"
	// RoleAdmin is the administrative role
	RoleAdmin UserRole = "admin"
)

// DefaultRole is assigned when signup omits a role
const DefaultRole = RoleMember

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleMember, RoleStaff, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{RoleMember, RoleStaff, RoleAdmin}
}

// RoleSet is a fixed set of allowed roles, built once at route
// registration time.
type RoleSet map[UserRole]struct{}

// NewRoleSet builds an immutable set from the given roles
func NewRoleSet(roles ...UserRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether the role belongs to the set
func (s RoleSet) Contains(role UserRole) bool {
	_, ok := s[role]
	return ok
}
