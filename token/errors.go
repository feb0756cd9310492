package token

import (
	"errors"
	"fmt"
)

// Kind classifies why a token was rejected.
type Kind string

const (
	// KindMalformed is returned for input that is not a structurally valid token.
	KindMalformed Kind = "malformed"

	// KindBadSignature is returned when the signature does not verify under the signing key.
	KindBadSignature Kind = "bad_signature"

	// KindExpired is returned when a signature-valid token is past its expiry.
	KindExpired Kind = "expired"
)

var (
	// ErrMalformed matches any *Error of kind KindMalformed via errors.Is
	ErrMalformed = &Error{Kind: KindMalformed}

	// ErrBadSignature matches any *Error of kind KindBadSignature via errors.Is
	ErrBadSignature = &Error{Kind: KindBadSignature}

	// ErrExpired matches any *Error of kind KindExpired via errors.Is
	ErrExpired = &Error{Kind: KindExpired}

	// ErrEmptySubject is returned by Issue when asked to sign an empty subject
	ErrEmptySubject = errors.New("token: subject must not be empty")

	// ErrInvalidTTL is returned for a lifetime shorter than MinTTL
	ErrInvalidTTL = errors.New("token: ttl must be at least one second")

	// ErrShortKey is returned by NewCodec when the signing key is too short for HS256
	ErrShortKey = errors.New("token: signing key must be at least 32 bytes")
)

// Error is a token rejection. The underlying library error is kept for
// logging but never exposed to clients.
type Error struct {
	Kind Kind
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("token %s", e.Kind)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is by comparing kinds
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the rejection kind of err, or "" if err is not a token error.
func KindOf(err error) Kind {
	var tokenErr *Error
	if errors.As(err, &tokenErr) {
		return tokenErr.Kind
	}
	return ""
}
