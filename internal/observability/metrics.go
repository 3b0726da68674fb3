package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the search client's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	searches     *prometheus.CounterVec
	latency      prometheus.Histogram
	dropped      prometheus.Counter
	stale        prometheus.Counter
	resets       prometheus.Counter
	sessionTurns prometheus.Gauge
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsearch_searches_total",
			Help: "Search requests by outcome",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopsearch_search_latency_seconds",
			Help:    "Search round-trip latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopsearch_products_dropped_total",
			Help: "Malformed product records dropped while parsing",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopsearch_stale_responses_total",
			Help: "Responses discarded because a newer one was already applied",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopsearch_session_resets_total",
			Help: "Explicit session resets",
		}),
		sessionTurns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shopsearch_session_turns",
			Help: "Turns in the current session",
		}),
	}
	m.registry.MustRegister(m.searches, m.latency, m.dropped, m.stale, m.resets, m.sessionTurns)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSearch records one completed search. outcome is "settled" or an error class.
func (m *Metrics) ObserveSearch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.latency.Observe(d.Seconds())
}

// AddDropped counts dropped product records.
func (m *Metrics) AddDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.Add(float64(n))
}

// IncStale counts a discarded out-of-order response.
func (m *Metrics) IncStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

// IncReset counts a session reset.
func (m *Metrics) IncReset() {
	if m == nil {
		return
	}
	m.resets.Inc()
	m.sessionTurns.Set(0)
}

// SetTurns records the current session's turn count.
func (m *Metrics) SetTurns(n int) {
	if m == nil {
		return
	}
	m.sessionTurns.Set(float64(n))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
