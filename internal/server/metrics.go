package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wheelsim_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wheelsim_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	simulationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wheelsim_simulations_total",
			Help: "Simulation requests by source and outcome",
		},
		[]string{"source", "result"},
	)

	simulationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wheelsim_simulation_duration_seconds",
			Help:    "Wall time of one PID/fuzzy comparison",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	simulationSamples = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wheelsim_simulation_samples",
			Help:    "Samples per returned series",
			Buckets: prometheus.ExponentialBuckets(100, 4, 7),
		},
	)

	wsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wheelsim_ws_connections_active",
			Help: "Open WebSocket sessions",
		},
	)

	wsMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wheelsim_ws_messages_total",
			Help: "WebSocket messages by direction and type",
		},
		[]string{"direction", "type"},
	)
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		// The upgrader needs the raw writer to hijack the connection.
		if route == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
