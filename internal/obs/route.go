package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type routeKey struct{}

type routeSlot struct{ pattern string }

// WithRoutePattern pins the route label used by metrics and request logs.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routeKey{}, &routeSlot{pattern: pattern})
}

// RoutePatternFromContext returns the pinned or recorded route pattern.
func RoutePatternFromContext(ctx context.Context) string {
	if slot, ok := ctx.Value(routeKey{}).(*routeSlot); ok {
		return slot.pattern
	}
	return ""
}

// RoutePatternMiddleware records chi's matched pattern into the request's
// route slot once routing has finished. A wrapper outside the router that
// installed an empty slot with WithRoutePattern sees the filled value.
func RoutePatternMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot, ok := r.Context().Value(routeKey{}).(*routeSlot)
		if !ok {
			slot = &routeSlot{}
			r = r.WithContext(context.WithValue(r.Context(), routeKey{}, slot))
		}
		next.ServeHTTP(w, r)
		if slot.pattern == "" {
			if rc := chi.RouteContext(r.Context()); rc != nil {
				slot.pattern = rc.RoutePattern()
			}
		}
	})
}

func routeOf(r *http.Request) string {
	if route := RoutePatternFromContext(r.Context()); route != "" {
		return route
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
