// internal/application/mint/metrics.go
package mint

// Metrics receives per-step counters. infra/metrics provides the prometheus one.
type Metrics interface {
	ObserveAttempt(step string, ok bool)
	ObserveRetry(step string)
	ObserveOutcome(outcome Outcome)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAttempt(string, bool) {}
func (nopMetrics) ObserveRetry(string)         {}
func (nopMetrics) ObserveOutcome(Outcome)      {}
