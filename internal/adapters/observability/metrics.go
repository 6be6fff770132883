package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// registry holds every smartstay collector plus the Go runtime ones.
var registry = prometheus.NewRegistry()

var (
	factory = promauto.With(registry)

	requests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartstay", Subsystem: "http", Name: "requests_total",
		Help: "Served API requests by route template and status.",
	}, []string{"route", "method", "status"})

	requestSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smartstay", Subsystem: "http", Name: "request_seconds",
		Help:    "API request latency.",
		Buckets: []float64{.005, .025, .1, .25, 1, 2.5, 5, 15, 60, 120},
	}, []string{"route", "method"})

	upstreamCalls = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartstay", Subsystem: "upstream", Name: "calls_total",
		Help: "Calls to the identity provider, the image store and the API itself; status 0 is a transport failure.",
	}, []string{"service", "endpoint", "status"})

	upstreamSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smartstay", Subsystem: "upstream", Name: "call_seconds",
		Help:    "Upstream call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "endpoint"})

	cacheOps = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartstay", Subsystem: "cache", Name: "ops_total",
		Help: "Cache operations by outcome (hit, miss, set, del).",
	}, []string{"cache", "event"})

	gateWaitSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "smartstay", Subsystem: "db", Name: "gate_wait_seconds",
		Help:    "Time requests spent waiting for the database connection.",
		Buckets: []float64{.001, .01, .1, .5, 1, 2, 5, 10},
	}, []string{"outcome"})

	clientRetries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartstay", Subsystem: "client", Name: "retries_total",
		Help: "Retries scheduled by the client loaders.",
	}, []string{"loader", "rule"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes the smartstay registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{ErrorLog: promLogger{}})
}

// Serve starts a dedicated metrics listener; empty addr disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics listener up")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics listener stopped")
		}
	}()
}

type promLogger struct{}

func (promLogger) Println(v ...interface{}) { log.Warn().Msgf("promhttp: %v", v) }

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	requestSeconds.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	upstreamCalls.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	upstreamSeconds.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { cacheOps.WithLabelValues(cache, event).Inc() }

// ObserveGate records how long a request waited on the readiness gate.
func ObserveGate(ready bool, dur time.Duration) {
	outcome := "ready"
	if !ready {
		outcome = "unavailable"
	}
	gateWaitSeconds.WithLabelValues(outcome).Observe(dur.Seconds())
}

func ObserveRetry(loader, rule string) { clientRetries.WithLabelValues(loader, rule).Inc() }
