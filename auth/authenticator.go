package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z8EaR4SVDMcCFyqK2LQ5Y4kS"

// Authenticator checks login credentials.
type Authenticator struct {
	users    UserLookup
	verifier CredentialVerifier
	logger   *zap.Logger
}

// NewAuthenticator creates an authenticator over the user store
func NewAuthenticator(users UserLookup, verifier CredentialVerifier, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		users:    users,
		verifier: verifier,
		logger:   logger,
	}
}

// AuthenticateCredentials verifies username and password and returns the
// resolved identity. An unknown user and a wrong password both return
// ErrBadCredentials. Store failures are returned as-is.
func (a *Authenticator) AuthenticateCredentials(ctx context.Context, username, password string) (*Identity, error) {
	user, err := a.users.FindBySubject(ctx, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err != nil || user == nil {
		a.verifier.Verify(password, dummyHash)
		a.logger.Debug("login rejected", zap.String("reason", "unknown_user"))
		return nil, ErrBadCredentials
	}

	if !a.verifier.Verify(password, user.PasswordHash) {
		a.logger.Debug("login rejected", zap.String("reason", "password_mismatch"))
		return nil, ErrBadCredentials
	}

	return &Identity{
		Subject: user.Username,
		Roles:   rolesFor(user),
	}, nil
}
