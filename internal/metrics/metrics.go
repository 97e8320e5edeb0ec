// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storerating"

// Rating submission outcomes.
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
)

// Metrics is a private registry with the HTTP and domain collectors. Methods are safe
// to call on a nil *Metrics, which records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight     prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	ratingsSubmitted *prometheus.CounterVec
}

// New builds and registers every collector, including the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		ratingsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_submitted_total",
			Help:      "Ratings accepted, split by whether the rating was created or overwritten.",
		}, []string{"outcome"}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.ratingsSubmitted,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// RatingSubmitted counts one accepted rating.
func (m *Metrics) RatingSubmitted(created bool) {
	if m == nil {
		return
	}
	outcome := OutcomeUpdated
	if created {
		outcome = OutcomeCreated
	}
	m.ratingsSubmitted.WithLabelValues(outcome).Inc()
}

// PoolStats reports connection pool statistics; it may return nil before the pool exists.
type PoolStats func() *pgxpool.Stat

// RegisterPool exports connection pool gauges read from stats at scrape time.
func (m *Metrics) RegisterPool(stats PoolStats) {
	if m == nil || stats == nil {
		return
	}
	gauge := func(name, help string, read func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 {
			st := stats()
			if st == nil {
				return 0
			}
			return read(st)
		})
	}
	m.Registry.MustRegister(
		gauge("acquired_conns", "Connections currently checked out of the pool.",
			func(st *pgxpool.Stat) float64 { return float64(st.AcquiredConns()) }),
		gauge("idle_conns", "Idle connections in the pool.",
			func(st *pgxpool.Stat) float64 { return float64(st.IdleConns()) }),
		gauge("total_conns", "Total connections in the pool.",
			func(st *pgxpool.Stat) float64 { return float64(st.TotalConns()) }),
		gauge("max_conns", "Maximum size of the pool.",
			func(st *pgxpool.Stat) float64 { return float64(st.MaxConns()) }),
	)
}

// Instrument records request count, latency and in-flight gauge, labelled by the chi
// route pattern so path parameters do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		method := strings.ToUpper(r.Method)

		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
