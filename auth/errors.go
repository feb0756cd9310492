package auth

import "errors"

var (
	// ErrNotFound is returned by the resolver when no user matches the subject
	ErrNotFound = errors.New("auth: user not found")

	// ErrBadCredentials is returned for an unknown username or a wrong password.
	// Both cases share the error so callers cannot enumerate accounts.
	ErrBadCredentials = errors.New("auth: bad credentials")
)
