// Package metrics exposes the Prometheus collectors of the front end.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	identityResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediafront",
			Subsystem: "identity",
			Name:      "resolutions_total",
			Help:      "Identity resolutions by the source that supplied the profile.",
		},
		[]string{"source"},
	)

	identityFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mediafront",
			Subsystem: "identity",
			Name:      "whoami_duration_seconds",
			Help:      "Duration of identity endpoint requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"outcome"},
	)

	signOuts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediafront",
			Subsystem: "identity",
			Name:      "signouts_total",
			Help:      "Sign-out attempts by result.",
		},
		[]string{"result"},
	)

	sectionItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mediafront",
			Subsystem: "home",
			Name:      "section_items",
			Help:      "Items returned by the last fetch of each home page section.",
		},
		[]string{"section"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mediafront",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Browser sessions with live in-memory identity state.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediafront",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mediafront",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		identityResolutions,
		identityFetchDuration,
		signOuts,
		sectionItems,
		activeSessions,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordResolution counts a resolution answered by source.
func RecordResolution(source string) {
	identityResolutions.WithLabelValues(source).Inc()
}

// RecordWhoAmI observes the latency of one identity endpoint request.
func RecordWhoAmI(outcome string, d time.Duration) {
	identityFetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordSignOut counts a sign-out attempt.
func RecordSignOut(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	signOuts.WithLabelValues(result).Inc()
}

// SetSectionItems records how many items a home section returned.
func SetSectionItems(section string, n int) {
	sectionItems.WithLabelValues(section).Set(float64(n))
}

// SetActiveSessions records the number of live sessions.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// InstrumentHandler wraps next with HTTP request metrics. Routes are labeled
// with the chi route pattern to keep label cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
