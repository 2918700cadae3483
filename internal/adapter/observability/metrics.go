package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "operation"},
	)

	TurnsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turns_enqueued_total",
			Help: "Total number of turn jobs enqueued",
		},
		[]string{"type"},
	)
	TurnsProcessing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "turns_processing",
			Help: "Number of turn jobs currently processing",
		},
		[]string{"type"},
	)
	TurnsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turns_completed_total",
			Help: "Total number of turn jobs completed",
		},
		[]string{"type"},
	)
	TurnsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turns_failed_total",
			Help: "Total number of turn jobs failed",
		},
		[]string{"type"},
	)

	// Turn outcome distribution: recommendation, clarify, raw (non-JSON
	// passthrough), validation_failed.
	TurnOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "turn_outcomes_total",
			Help: "Total number of conversational turns by outcome",
		},
		[]string{"outcome"},
	)
	TurnRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "turn_retries_total",
			Help: "Total number of corrective model retries",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(TurnsEnqueuedTotal)
	prometheus.MustRegister(TurnsProcessing)
	prometheus.MustRegister(TurnsCompletedTotal)
	prometheus.MustRegister(TurnsFailedTotal)
	prometheus.MustRegister(TurnOutcomesTotal)
	prometheus.MustRegister(TurnRetriesTotal)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

func EnqueueTurn(turnType string) {
	TurnsEnqueuedTotal.WithLabelValues(turnType).Inc()
}

func StartProcessingTurn(turnType string) {
	TurnsProcessing.WithLabelValues(turnType).Inc()
}

func CompleteTurn(turnType string) {
	TurnsProcessing.WithLabelValues(turnType).Dec()
	TurnsCompletedTotal.WithLabelValues(turnType).Inc()
}

func FailTurn(turnType string) {
	TurnsProcessing.WithLabelValues(turnType).Dec()
	TurnsFailedTotal.WithLabelValues(turnType).Inc()
}

// ObserveTurnOutcome records what a completed turn produced.
func ObserveTurnOutcome(outcome string, retried bool) {
	TurnOutcomesTotal.WithLabelValues(outcome).Inc()
	if retried {
		TurnRetriesTotal.Inc()
	}
}
