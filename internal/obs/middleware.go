package obs

import (
	"net/http"
	"strconv"
	"time"
)

// HTTPObs records request counts, latency and in-flight requests.
type HTTPObs struct {
	Metrics *HTTPMetrics
}

func (o HTTPObs) Middleware(next http.Handler) http.Handler {
	m := o.Metrics
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := NewStatusRecorder(w)
		start := time.Now()
		m.InFlight.Inc()
		defer func() {
			m.InFlight.Dec()
			route := routeOf(r)
			if route == "" {
				route = "unknown"
			}
			m.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.Status())).Inc()
			m.ReqDur.WithLabelValues(r.Method, route).Observe(DurationMillis(time.Since(start)))
		}()
		next.ServeHTTP(rec, r)
	})
}
