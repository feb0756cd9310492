package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/farmily/fhs/auth"
	"github.com/farmily/fhs/internal/observability"
	"github.com/farmily/fhs/token"
	"go.uber.org/zap"
)

const (
	bearerPrefix = "Bearer "

	// DefaultLookupTimeout bounds a single identity lookup
	DefaultLookupTimeout = 2 * time.Second
)

// TokenVerifier checks session tokens
type TokenVerifier interface {
	ParseSubject(tokenString string) (string, error)
	IsLive(tokenString, expectedSubject string) bool
}

// IdentityResolver turns a verified subject into an identity
type IdentityResolver interface {
	Resolve(ctx context.Context, subject string) (*auth.Identity, error)
}

// AuthMiddleware establishes the request identity from a bearer token.
// It never rejects a request; route access is decided by Authorizer.
type AuthMiddleware struct {
	tokens        TokenVerifier
	resolver      IdentityResolver
	lookupTimeout time.Duration
	metrics       *observability.Metrics
	logger        *zap.Logger
	pipeline      *Pipeline
}

// AuthOption configures an AuthMiddleware
type AuthOption func(*AuthMiddleware)

// WithLookupTimeout bounds each identity lookup
func WithLookupTimeout(d time.Duration) AuthOption {
	return func(m *AuthMiddleware) {
		if d > 0 {
			m.lookupTimeout = d
		}
	}
}

// WithAuthMetrics records pipeline outcomes and lookup latency
func WithAuthMetrics(metrics *observability.Metrics) AuthOption {
	return func(m *AuthMiddleware) {
		m.metrics = metrics
	}
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenVerifier, resolver IdentityResolver, logger *zap.Logger, opts ...AuthOption) *AuthMiddleware {
	m := &AuthMiddleware{
		tokens:        tokens,
		resolver:      resolver,
		lookupTimeout: DefaultLookupTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.pipeline = NewPipeline(m.Stages()...)
	return m
}

// Stages returns the pipeline stages in execution order.
func (m *AuthMiddleware) Stages() []Stage {
	return []Stage{
		m.traced("extract_bearer", extractBearer),
		m.traced("parse_subject", m.parseSubject),
		m.traced("guard_reentry", guardReentry),
		m.traced("resolve_identity", m.resolveIdentity),
		m.traced("check_liveness", m.checkLiveness),
		m.traced("bind_identity", bindIdentity),
	}
}

// Run executes the pipeline for a raw Authorization header value. When an
// identity is already bound on ctx the result always reports it, whatever
// the header held.
func (m *AuthMiddleware) Run(ctx context.Context, header string) Exchange {
	ex := m.pipeline.Run(ctx, NewExchange(ctx, header))
	if ex.Bound != nil && ex.State != StateContextSet {
		ex.State = StateContextSet
		ex.Identity = ex.Bound
		ex.Reason = "already_bound"
	}
	return ex
}

// Authenticate runs the pipeline, binds the resulting identity if any, and
// always calls next. An identity already on the context is never replaced.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		ex := m.Run(ctx, r.Header.Get("Authorization"))

		if ex.State == StateContextSet && ex.Bound == nil {
			ctx = auth.WithIdentity(ctx, ex.Identity)
		}
		ctx = WithAuthState(ctx, ex.State)

		m.metrics.RecordAuthentication(ex.State.String(), ex.Reason)
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.String("state", ex.State.String()),
			zap.String("reason", ex.Reason),
		}
		if ex.State == StateContextSet {
			fields = append(fields, zap.String("subject", ex.Identity.Subject))
		}
		m.logger.Debug("authentication finished", fields...)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) traced(name string, stage Stage) Stage {
	return func(ctx context.Context, ex Exchange) Exchange {
		from := ex.State
		out := stage(ctx, ex)
		if ce := m.logger.Check(zap.DebugLevel, "auth stage"); ce != nil {
			ce.Write(
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("stage", name),
				zap.String("from", from.String()),
				zap.String("to", out.State.String()),
				zap.String("reason", out.Reason),
			)
		}
		return out
	}
}

// extractBearer pulls the token out of an "Authorization: Bearer <token>" header.
func extractBearer(_ context.Context, ex Exchange) Exchange {
	if ex.State == StateNoHeader {
		return empty(ex, "no_header")
	}
	if !strings.HasPrefix(ex.Header, bearerPrefix) {
		return empty(ex, "not_bearer")
	}
	tok := strings.TrimSpace(ex.Header[len(bearerPrefix):])
	if tok == "" {
		return empty(ex, "empty_token")
	}
	ex.Token = tok
	ex.State = StateTokenExtracted
	return ex
}

// parseSubject verifies the signature and reads the subject. Expiry is left
// to checkLiveness.
func (m *AuthMiddleware) parseSubject(_ context.Context, ex Exchange) Exchange {
	subject, err := m.tokens.ParseSubject(ex.Token)
	if err != nil {
		reason := string(token.KindOf(err))
		if reason == "" {
			reason = "unparseable"
		}
		return invalid(ex, reason)
	}
	ex.Subject = subject
	return ex
}

// guardReentry leaves an identity bound by an earlier pass in place.
func guardReentry(_ context.Context, ex Exchange) Exchange {
	if ex.Bound == nil {
		return ex
	}
	ex.Identity = ex.Bound
	ex.State = StateContextSet
	ex.Reason = "already_bound"
	return ex
}

func (m *AuthMiddleware) resolveIdentity(ctx context.Context, ex Exchange) Exchange {
	lookupCtx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
	defer cancel()

	start := time.Now()
	id, err := m.resolver.Resolve(lookupCtx, ex.Subject)
	m.metrics.ObserveLookup(time.Since(start))

	switch {
	case err == nil && id != nil:
		ex.Identity = id
		return ex
	case err == nil, errors.Is(err, auth.ErrNotFound):
		return invalid(ex, "unknown_subject")
	case errors.Is(err, context.DeadlineExceeded):
		m.logger.Warn("identity lookup timed out",
			zap.String("request_id", GetRequestIDFromContext(ctx)),
			zap.Duration("timeout", m.lookupTimeout))
		return invalid(ex, "lookup_timeout")
	default:
		m.logger.Warn("identity lookup failed",
			zap.String("request_id", GetRequestIDFromContext(ctx)),
			zap.Error(err))
		return invalid(ex, "lookup_failed")
	}
}

// checkLiveness confirms the token belongs to the resolved identity and has
// not expired.
func (m *AuthMiddleware) checkLiveness(_ context.Context, ex Exchange) Exchange {
	if ex.Identity == nil || !m.tokens.IsLive(ex.Token, ex.Identity.Subject) {
		return invalid(ex, "not_live")
	}
	ex.State = StateValid
	return ex
}

func bindIdentity(_ context.Context, ex Exchange) Exchange {
	if ex.State != StateValid || ex.Identity == nil {
		return empty(ex, "not_valid")
	}
	ex.State = StateContextSet
	ex.Reason = "ok"
	return ex
}
