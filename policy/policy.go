package policy

import (
	"fmt"
	"strings"

	"github.com/farmily/fhs/auth"
)

// Access is the kind of capability a rule demands
type Access string

const (
	AccessPublic        Access = "public"
	AccessAuthenticated Access = "authenticated"
	AccessRole          Access = "role"
)

// Capability is what a caller needs to pass a rule.
type Capability struct {
	Access Access `yaml:"access" json:"access"`
	// Role is set only when Access is AccessRole.
	Role string `yaml:"role,omitempty" json:"role,omitempty"`
}

// Public returns a capability any caller satisfies
func Public() Capability { return Capability{Access: AccessPublic} }

// Authenticated returns a capability satisfied by any bound identity
func Authenticated() Capability { return Capability{Access: AccessAuthenticated} }

// RequireRole returns a capability satisfied by identities holding role
func RequireRole(role string) Capability { return Capability{Access: AccessRole, Role: role} }

// String implements fmt.Stringer
func (c Capability) String() string {
	if c.Access == AccessRole {
		return fmt.Sprintf("role(%s)", c.Role)
	}
	return string(c.Access)
}

// Rule binds a path pattern to a capability.
type Rule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	// Methods restricts the rule to these HTTP methods. Empty means any method.
	Methods     []string   `yaml:"methods,omitempty" json:"methods,omitempty"`
	Requirement Capability `yaml:",inline" json:"requirement"`
}

// Matches reports whether the rule applies to method and urlPath
func (r Rule) Matches(method, urlPath string) bool {
	if len(r.Methods) > 0 && !containsFold(r.Methods, method) {
		return false
	}
	return matchPath(r.Pattern, urlPath)
}

// Validate checks the rule is well formed
func (r Rule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	if !validPattern(r.Pattern) {
		return fmt.Errorf("invalid pattern %q", r.Pattern)
	}
	for _, m := range r.Methods {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("pattern %q: empty method", r.Pattern)
		}
	}

	switch r.Requirement.Access {
	case AccessPublic, AccessAuthenticated:
		if r.Requirement.Role != "" {
			return fmt.Errorf("pattern %q: role is only allowed with access %q", r.Pattern, AccessRole)
		}
	case AccessRole:
		if r.Requirement.Role == "" {
			return fmt.Errorf("pattern %q: role is required with access %q", r.Pattern, AccessRole)
		}
	default:
		return fmt.Errorf("pattern %q: unknown access %q", r.Pattern, r.Requirement.Access)
	}
	return nil
}

// Decision is the outcome of evaluating a request against a Table.
type Decision int

const (
	// Allow lets the request through to its handler
	Allow Decision = iota
	// Unauthenticated means no identity is bound and the route needs one (401)
	Unauthenticated
	// Forbidden means an identity is bound but lacks the required role (403)
	Forbidden
)

// String implements fmt.Stringer
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// fallback applies to requests no rule matches
var fallback = Rule{Pattern: "/**", Requirement: Authenticated()}

// Table is an ordered, immutable rule list.
type Table struct {
	rules []Rule
}

// NewTable validates rules and returns a table evaluating them in order.
func NewTable(rules []Rule) (*Table, error) {
	copied := make([]Rule, len(rules))
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		r.Methods = upper(r.Methods)
		copied[i] = r
	}
	return &Table{rules: copied}, nil
}

// Rules returns a copy of the table's rules in evaluation order
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Match returns the first rule matching the request.
func (t *Table) Match(method, urlPath string) (Rule, bool) {
	for _, r := range t.rules {
		if r.Matches(method, urlPath) {
			return r, true
		}
	}
	return Rule{}, false
}

// Decide evaluates the request. id is nil when no identity is bound.
// A request matching no rule is decided as if it required authentication.
func (t *Table) Decide(method, urlPath string, id *auth.Identity) Decision {
	d, _ := t.Evaluate(method, urlPath, id)
	return d
}

// Evaluate is Decide that also reports the rule used
func (t *Table) Evaluate(method, urlPath string, id *auth.Identity) (Decision, Rule) {
	rule, ok := t.Match(method, urlPath)
	if !ok {
		rule = fallback
	}
	return decide(rule.Requirement, id), rule
}

func decide(c Capability, id *auth.Identity) Decision {
	switch c.Access {
	case AccessPublic:
		return Allow
	case AccessAuthenticated:
		if id == nil {
			return Unauthenticated
		}
		return Allow
	case AccessRole:
		if id == nil {
			return Unauthenticated
		}
		if !id.HasRole(c.Role) {
			return Forbidden
		}
		return Allow
	default:
		// NewTable rejects unknown access kinds; a zero Capability lands here.
		if id == nil {
			return Unauthenticated
		}
		return Forbidden
	}
}

func containsFold(methods []string, method string) bool {
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func upper(methods []string) []string {
	if len(methods) == 0 {
		return nil
	}
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = strings.ToUpper(strings.TrimSpace(m))
	}
	return out
}
