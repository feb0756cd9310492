package middleware

import (
	"net/http"

	"github.com/farmily/fhs/auth"
	"github.com/farmily/fhs/internal/observability"
	"github.com/farmily/fhs/policy"
	"github.com/farmily/fhs/utils"
	"go.uber.org/zap"
)

const (
	unauthenticatedMessage = "Authentication required"
	forbiddenMessage       = "Access Denied"
)

// PolicyDecider evaluates a request against the route table
type PolicyDecider interface {
	Evaluate(method, urlPath string, id *auth.Identity) (policy.Decision, policy.Rule)
}

// Authorizer enforces route policy at the HTTP boundary.
// It must run after AuthMiddleware.Authenticate.
type Authorizer struct {
	policy  PolicyDecider
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAuthorizer creates a new Authorizer
func NewAuthorizer(decider PolicyDecider, metrics *observability.Metrics, logger *zap.Logger) *Authorizer {
	return &Authorizer{
		policy:  decider,
		metrics: metrics,
		logger:  logger,
	}
}

// Authorize answers 401 when the route needs an identity and none is bound,
// 403 when the bound identity lacks the required role, and otherwise calls
// next. The 401 body is the same whatever made authentication fail.
func (a *Authorizer) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)
		id := auth.IdentityFromContext(ctx)

		decision, rule := a.policy.Evaluate(r.Method, r.URL.Path, id)
		a.metrics.RecordAuthorization(decision.String())

		if decision != policy.Allow {
			observability.LabelRoute(ctx, "denied:"+rule.Pattern)
		}

		switch decision {
		case policy.Unauthenticated:
			a.logger.Warn("unauthenticated request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("rule", rule.Pattern))
			if err := utils.WriteUnauthorized(w, unauthenticatedMessage); err != nil {
				a.logger.Error("failed to write unauthorized response", zap.Error(err))
			}
			return

		case policy.Forbidden:
			a.logger.Warn("insufficient permissions",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("subject", id.Subject),
				zap.String("required", rule.Requirement.String()))
			if err := utils.WriteForbidden(w, forbiddenMessage); err != nil {
				a.logger.Error("failed to write forbidden response", zap.Error(err))
			}
			// The response is final; push it out before the handler chain unwinds.
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}
