// Package token issues and parses the signed session tokens handed out at login.
//
// Tokens are compact HS256 JWS strings carrying only sub, iat and exp. The
// signing key is fixed for the life of the Codec; rotating it means building
// a new Codec, which in practice means restarting the process.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL is the token lifetime used when none is configured (24h).
	DefaultTTL = 24 * time.Hour

	// MinKeyLength is the minimum HS256 key size in bytes.
	MinKeyLength = 32

	// MinTTL is the shortest accepted lifetime. exp is encoded in whole
	// seconds, so anything shorter can expire before it is handed out.
	MinTTL = time.Second
)

// Codec creates and parses signed tokens.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// Option configures a Codec
type Option func(*Codec)

// WithTTL overrides the default token lifetime used by IssueDefault.
// Zero keeps the default; anything else below MinTTL makes NewCodec fail.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl != 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec creates a codec bound to the given signing key.
// The key is copied so later changes by the caller have no effect.
func NewCodec(key []byte, opts ...Option) (*Codec, error) {
	if len(key) < MinKeyLength {
		return nil, ErrShortKey
	}

	c := &Codec{
		key: append([]byte(nil), key...),
		ttl: DefaultTTL,
		now: time.Now,
		// Expiry is checked by IsLive against the codec clock, so the
		// library's own claim validation is switched off here.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl < MinTTL {
		return nil, ErrInvalidTTL
	}
	return c, nil
}

// TTL returns the lifetime used by IssueDefault.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject valid for ttl from now.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	if ttl < MinTTL {
		return "", ErrInvalidTTL
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// IssueDefault signs a token for subject using the configured TTL.
func (c *Codec) IssueDefault(subject string) (string, error) {
	return c.Issue(subject, c.ttl)
}

// ParseSubject verifies the token's signature and structure and returns its
// subject. Expiry is not checked. Failures are *Error values of kind
// KindMalformed or KindBadSignature.
func (c *Codec) ParseSubject(tokenString string) (string, error) {
	claims, err := c.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsLive reports whether the token verifies, belongs to expectedSubject and
// has not yet expired. It never returns an error.
func (c *Codec) IsLive(tokenString, expectedSubject string) bool {
	claims, err := c.parse(tokenString)
	if err != nil {
		return false
	}
	if claims.Subject != expectedSubject {
		return false
	}
	return c.live(claims)
}

// Validate is ParseSubject plus the expiry check. Expired tokens yield an
// *Error of kind KindExpired.
func (c *Codec) Validate(tokenString string) (string, error) {
	claims, err := c.parse(tokenString)
	if err != nil {
		return "", err
	}
	if !c.live(claims) {
		return "", &Error{Kind: KindExpired}
	}
	return claims.Subject, nil
}

// Expiry returns the expiry time encoded in a signature-valid token.
func (c *Codec) Expiry(tokenString string) (time.Time, error) {
	claims, err := c.parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

func (c *Codec) live(claims *jwt.RegisteredClaims) bool {
	return c.now().Before(claims.ExpiresAt.Time)
}

func (c *Codec) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	if tokenString == "" {
		return nil, &Error{Kind: KindMalformed, Err: errors.New("empty token")}
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := c.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, &Error{Kind: KindBadSignature, Err: err}
		}
		return nil, &Error{Kind: KindMalformed, Err: err}
	}
	if !tok.Valid {
		return nil, &Error{Kind: KindBadSignature}
	}

	// A token without sub or exp was not produced by Issue.
	if claims.Subject == "" {
		return nil, &Error{Kind: KindMalformed, Err: errors.New("missing sub claim")}
	}
	if claims.ExpiresAt == nil {
		return nil, &Error{Kind: KindMalformed, Err: errors.New("missing exp claim")}
	}
	return claims, nil
}
