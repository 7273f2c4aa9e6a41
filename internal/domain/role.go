package domain

// Role constants define the allowed user roles.
const (
	RoleCustomer   = "customer"
	RoleStoreOwner = "store_owner"
	RoleAdmin      = "admin"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleCustomer, RoleStoreOwner, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller of a service operation, supplied by the
// auth middleware.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
