package policy

import (
	"net/http"

	"github.com/farmily/fhs/auth"
)

var probeMethods = []string{http.MethodGet, http.MethodHead}

// DefaultRules returns the built-in route table.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/api/auth/**", Requirement: Public()},
		{Pattern: "/error", Requirement: Public()},
		{Pattern: "/healthz", Methods: probeMethods, Requirement: Public()},
		{Pattern: "/readyz", Methods: probeMethods, Requirement: Public()},
		{Pattern: "/metrics", Methods: probeMethods, Requirement: Public()},
		{Pattern: "/api/admin/**", Requirement: RequireRole(auth.RoleAdmin)},
		{Pattern: "/api/user/profile", Requirement: Authenticated()},
		{Pattern: "/**", Requirement: Authenticated()},
	}
}

// Defaults returns a table built from DefaultRules
func Defaults() *Table {
	t, err := NewTable(DefaultRules())
	if err != nil {
		panic("policy: invalid default rules: " + err.Error())
	}
	return t
}
