package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for a request ID set outside chi
	RequestIDKey contextKey = "request_id"

	// AuthStateKey is the context key for the authentication outcome
	AuthStateKey contextKey = "auth_state"
)

// GetRequestIDFromContext retrieves the request ID from context.
// chi's RequestID middleware takes precedence over WithRequestID.
func GetRequestIDFromContext(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// AuthStateFromContext returns the final authentication state recorded for
// the request, and false if authentication never ran.
func AuthStateFromContext(ctx context.Context) (AuthState, bool) {
	if val := ctx.Value(AuthStateKey); val != nil {
		if state, ok := val.(AuthState); ok {
			return state, true
		}
	}
	return StateNoHeader, false
}

// WithAuthState records the authentication outcome on the context
func WithAuthState(ctx context.Context, state AuthState) context.Context {
	return context.WithValue(ctx, AuthStateKey, state)
}
