package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsPath = "/metrics"

var (
	webUIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_finder_http_request_duration_seconds",
		Help:    "Duration of web UI requests.",
		Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	webUIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_finder_http_requests_total",
		Help: "Web UI requests by route and status.",
	}, []string{"method", "path", "status"})

	webUIInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "media_finder_http_requests_in_flight",
		Help: "Web UI requests currently being served.",
	})

	reloadSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "media_finder_reload_websockets",
		Help: "Open build-id websocket connections.",
	})
)

// MetricsMiddleware records web UI traffic by chi route pattern. Scrapes of
// the metrics endpoint are not counted.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == metricsPath {
			next.ServeHTTP(w, r)
			return
		}
		webUIInFlight.Inc()
		defer webUIInFlight.Dec()

		began := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := routeLabel(r)
		webUIDuration.WithLabelValues(r.Method, route).Observe(time.Since(began).Seconds())
		webUIRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
	})
}

// routeLabel is the matched route pattern, so every static file shares
// the "/*" label.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
