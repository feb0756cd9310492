package auth

import "context"

type contextKey string

const identityKey contextKey = "auth_identity"

// WithIdentity returns a copy of ctx carrying id.
// A nil identity leaves ctx unchanged.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity bound to ctx, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	if val := ctx.Value(identityKey); val != nil {
		if id, ok := val.(*Identity); ok {
			return id
		}
	}
	return nil
}

// SubjectFromContext returns the bound subject, or "" when none is bound.
func SubjectFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Subject
	}
	return ""
}
