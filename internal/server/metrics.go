package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal counts completed requests by route and status.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cyio_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// httpRequestDuration tracks request latency by route.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cyio_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeLabel(r.URL.Path)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel collapses container ids so the route label stays bounded.
func routeLabel(path string) string {
	if !strings.HasPrefix(path, containersPrefix) {
		switch path {
		case "/healthz", "/metrics", "/graph/build", "/containers":
			return path
		default:
			return "other"
		}
	}
	rest := strings.Trim(strings.TrimPrefix(path, containersPrefix), "/")
	if rest == "" {
		return "/containers"
	}
	if _, sub, ok := strings.Cut(rest, "/"); ok && sub != "" {
		return "/containers/{id}/" + sub
	}
	return "/containers/{id}"
}
