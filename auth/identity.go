package auth

const (
	// RoleAuthenticated is granted to users whose record carries no role data
	RoleAuthenticated = "AUTHENTICATED"

	// RoleAdmin gates the admin routes
	RoleAdmin = "ADMIN"
)

// DefaultRoles returns the roles assigned when a user record has no role list.
func DefaultRoles() []string {
	return []string{RoleAuthenticated}
}

// Identity is the authenticated principal for a single request.
// It is built by the Resolver and must not be modified once bound.
type Identity struct {
	Subject string   `json:"subject"`
	Roles   []string `json:"roles"`
}

// HasRole reports whether the identity was granted role.
// Comparison is exact and case-sensitive.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
