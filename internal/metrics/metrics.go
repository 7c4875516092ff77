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
	// Counter: cache decisions taken by the orchestrator (hit | miss).
	CacheDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tts_cache_decisions_total",
			Help: "Total number of phrase cache decisions by outcome.",
		},
		[]string{"decision"},
	)

	// Counter: record store operations by result.
	RecordStoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tts_record_store_ops_total",
			Help: "Total number of record store operations by op and result.",
		},
		[]string{"op", "result"},
	)

	RecordStoreLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tts_record_store_latency_seconds",
			Help:    "Record store operation latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"op"},
	)

	// Counter: synthesize-and-publish attempts by engine and result.
	SynthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tts_synthesis_total",
			Help: "Total number of synthesize-and-publish attempts.",
		},
		[]string{"engine", "result"},
	)

	SynthesisLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tts_synthesis_latency_seconds",
			Help:    "Synthesize-and-publish latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"engine"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tts_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter.",
		},
	)

	// Histogram: gateway HTTP latency in seconds.
	GatewayLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_latency_seconds",
			Help:    "HTTP request latency for the gateway in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method", "status_code"},
	)
)

// Register is called once in main() to register metrics.
func Register() {
	prometheus.MustRegister(
		CacheDecisionsTotal,
		RecordStoreOpsTotal,
		RecordStoreLatencySeconds,
		SynthesisTotal,
		SynthesisLatencySeconds,
		RateLimitedTotal,
		GatewayLatencySeconds,
	)
}

// Handler exposes the /metrics endpoint for Prometheus to scrape.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware measures gateway latency for each HTTP request. Requests are
// labelled with the chi route pattern so that path parameters do not blow up
// label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		GatewayLatencySeconds.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
