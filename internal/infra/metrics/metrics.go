// internal/infra/metrics/metrics.go
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	mintapp "mintx/internal/application/mint"
)

const namespace = "mintx"

// Metrics は Orchestrator / submission 用の Prometheus コレクタ一式です。
type Metrics struct {
	registry *prometheus.Registry

	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	inFlight prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_attempts_total",
			Help:      "Attempts per workflow step, by result.",
		}, []string{"step", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_retries_total",
			Help:      "Scheduled retries per workflow step.",
		}, []string{"step"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_outcomes_total",
			Help:      "Finished submissions by outcome.",
		}, []string{"outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "submissions_in_flight",
			Help:      "Submissions currently running.",
		}),
	}
	m.registry.MustRegister(
		m.attempts, m.retries, m.outcomes, m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

var _ mintapp.Metrics = (*Metrics)(nil)

func (m *Metrics) ObserveAttempt(step string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.attempts.WithLabelValues(step, result).Inc()
}

func (m *Metrics) ObserveRetry(step string) {
	m.retries.WithLabelValues(step).Inc()
}

func (m *Metrics) ObserveOutcome(outcome mintapp.Outcome) {
	m.outcomes.WithLabelValues(string(outcome)).Inc()
}

// Started / Finished は submission.Tracker の実装
func (m *Metrics) Started()  { m.inFlight.Inc() }
func (m *Metrics) Finished() { m.inFlight.Dec() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		m.registry,
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}),
	)
}

// Server exposes /metrics on its own address. Empty addr disables it.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewServer(addr string, m *Metrics, logger *zap.Logger) *Server {
	if addr == "" || m == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
		},
		logger: logger.Named("metrics"),
	}
}

// Run blocks until the server stops; ErrServerClosed is not an error.
func (s *Server) Run() error {
	if s == nil {
		return nil
	}
	s.logger.Info("metrics server started", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "metrics: listen")
	}
	return nil
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.logger.Info("metrics server stopping", zap.String("addr", s.srv.Addr))
	return s.srv.Shutdown(ctx)
}
