package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type routeLabelKey struct{}

type routeLabel struct {
	value string
}

// LabelRoute sets the route label HTTPMetrics uses for this request when chi
// never matched a route, such as a request rejected by middleware before
// routing. It is a no-op outside HTTPMetrics.
func LabelRoute(ctx context.Context, label string) {
	if l, ok := ctx.Value(routeLabelKey{}).(*routeLabel); ok {
		l.value = label
	}
}

// HTTPMetrics records request counts and durations labelled by the matched
// chi route pattern, so path parameters do not explode label cardinality.
// Requests chi never routed use the LabelRoute value, or "unmatched".
func (m *Metrics) HTTPMetrics(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		label := &routeLabel{}

		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), routeLabelKey{}, label)))

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		} else if label.value != "" {
			route = label.value
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		statusClass := strconv.Itoa(status/100) + "xx"

		m.RequestsTotal.WithLabelValues(r.Method, route, statusClass).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
