package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmily/fhs/models"
	"go.uber.org/zap"
)

// UserLookup finds a stored user by the subject carried in a token.
// Implementations return ErrNotFound when no user matches.
type UserLookup interface {
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
}

// Resolver maps a token subject to an Identity using the user store.
type Resolver struct {
	users  UserLookup
	logger *zap.Logger
}

// NewResolver creates a resolver backed by users
func NewResolver(users UserLookup, logger *zap.Logger) *Resolver {
	return &Resolver{
		users:  users,
		logger: logger,
	}
}

// Resolve looks up subject and builds a fresh Identity.
// A record with an explicit role list keeps it verbatim, including an empty
// one. A record with no role data gets DefaultRoles. Lookups are not retried.
func (r *Resolver) Resolve(ctx context.Context, subject string) (*Identity, error) {
	user, err := r.users.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	return &Identity{
		Subject: user.Username,
		Roles:   rolesFor(user),
	}, nil
}

func rolesFor(user *models.User) []string {
	if !user.HasRoleData() {
		return DefaultRoles()
	}
	roles := make([]string, len(user.Roles))
	copy(roles, user.Roles)
	return roles
}
