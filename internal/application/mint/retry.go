// internal/application/mint/retry.go
package mint

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"mintx/internal/domain/progress"
)

// Policy は各ステップ共通のリトライ設定です。
type Policy struct {
	MaxAttempts int
	// n 回目の失敗後の待ち時間 = min(BaseDelay·2^n, MaxDelay)
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy: 3 attempts, waits 2s then 4s, capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// Delay returns the wait after the n-th failed attempt (n >= 1).
func (p Policy) Delay(n int) time.Duration {
	p = p.normalized()
	if n < 1 {
		n = 1
	}
	d := p.BaseDelay
	for i := 0; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay || d <= 0 {
			return p.MaxDelay
		}
	}
	return d
}

// backoff: exponential from 2·BaseDelay, capped, MaxAttempts-1 retries.
func (p Policy) backoff() retry.Backoff {
	p = p.normalized()
	b := retry.NewExponential(2 * p.BaseDelay)
	b = retry.WithCappedDuration(p.MaxDelay, b)
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// step describes one retried call for progress reporting.
type step struct {
	name    string // metrics / log label
	label   string // user-facing failure label
	kind    ErrorKind
	percent int // progress start of the step
}

// runner は Retry Wrapper 本体です。1 回の送信の間だけ使います。
type runner struct {
	policy  Policy
	sink    progress.Sink
	logger  *zap.Logger
	metrics Metrics
}

// withRetry runs op up to policy.MaxAttempts times. Before each retry it reports
// "retrying" with the next attempt number and delay; on exhaustion it reports
// "error" and returns a *StepError. The wrapped call is not assumed idempotent.
func withRetry[T any](ctx context.Context, r runner, s step, op func(ctx context.Context) (T, error)) (T, error) {
	p := r.policy.normalized()

	var (
		result   T
		attempts int
	)

	inner := p.backoff()
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := inner.Next()
		if stop {
			return 0, true
		}
		r.metrics.ObserveRetry(s.name)
		r.sink.Report(progress.State{
			Status: progress.StatusRetrying,
			Message: fmt.Sprintf("%s - Retrying in %s (Attempt %d/%d)",
				s.label, formatDelay(next), attempts+1, p.MaxAttempts),
			Percent:     s.percent,
			Attempt:     attempts + 1,
			MaxAttempts: p.MaxAttempts,
			RetryIn:     next,
		})
		return next, false
	})

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++
		v, err := op(ctx)
		if err != nil {
			r.metrics.ObserveAttempt(s.name, false)
			r.logger.Warn("attempt failed",
				zap.String("step", s.name),
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", p.MaxAttempts),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		r.metrics.ObserveAttempt(s.name, true)
		result = v
		return nil
	})
	if err != nil {
		var zero T
		r.sink.Report(progress.State{
			Status:  progress.StatusError,
			Message: fmt.Sprintf("%s (%d failed attempts)", s.label, attempts),
			Percent: 0,
		})
		return zero, &StepError{Kind: s.kind, Attempts: attempts, Err: err, reported: true}
	}
	return result, nil
}

// 2s, 500ms など UI 向けの短い表記
func formatDelay(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
