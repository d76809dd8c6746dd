package mint

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mintx/internal/domain/progress"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestRunner(rec *progress.Recorder, p Policy) runner {
	return runner{policy: p, sink: rec, logger: zap.NewNop(), metrics: nopMetrics{}}
}

var testStep = step{name: "image", label: "Error uploading image", kind: KindImageUploadFailed, percent: 20}

func failingOp(k int) (func(context.Context) (string, error), *int) {
	calls := 0
	return func(context.Context) (string, error) {
		calls++
		if calls <= k {
			return "", errors.Newf("boom %d", calls)
		}
		return "ok", nil
	}, &calls
}

func TestWithRetryFailsKTimesThenSucceeds(t *testing.T) {
	for k := 0; k < 3; k++ {
		var rec progress.Recorder
		op, calls := failingOp(k)

		got, err := withRetry(context.Background(), newTestRunner(&rec, fastPolicy()), testStep, op)
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, k+1, *calls)

		states := rec.States()
		require.Len(t, states, k, "exactly k retrying events")
		for i, s := range states {
			assert.Equal(t, progress.StatusRetrying, s.Status)
			assert.Equal(t, i+2, s.Attempt, "attempt numbers strictly increase")
			assert.Equal(t, 3, s.MaxAttempts)
			assert.Equal(t, 20, s.Percent)
			assert.Contains(t, s.Message, "Error uploading image - Retrying in")
		}
		assert.Zero(t, rec.Count(progress.StatusError))
	}
}

func TestWithRetryAlwaysFails(t *testing.T) {
	var rec progress.Recorder
	op, calls := failingOp(100)

	_, err := withRetry(context.Background(), newTestRunner(&rec, fastPolicy()), testStep, op)
	require.Error(t, err)
	assert.Equal(t, 3, *calls)

	assert.Equal(t, 2, rec.Count(progress.StatusRetrying))
	assert.Equal(t, 1, rec.Count(progress.StatusError))
	last := rec.Last()
	assert.Equal(t, progress.StatusError, last.Status)
	assert.Equal(t, "Error uploading image (3 failed attempts)", last.Message)

	var se *StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindImageUploadFailed, se.Kind)
	assert.Equal(t, 3, se.Attempts)
	assert.True(t, errors.Is(err, KindImageUploadFailed))
	assert.Contains(t, err.Error(), "boom 3", "the last failure is propagated")
}

func TestWithRetrySingleAttempt(t *testing.T) {
	var rec progress.Recorder
	op, calls := failingOp(1)
	p := fastPolicy()
	p.MaxAttempts = 1

	_, err := withRetry(context.Background(), newTestRunner(&rec, p), testStep, op)
	require.Error(t, err)
	assert.Equal(t, 1, *calls)
	assert.Zero(t, rec.Count(progress.StatusRetrying))
	assert.Equal(t, "Error uploading image (1 failed attempts)", rec.Last().Message)
}

func TestWithRetryHonorsCancel(t *testing.T) {
	var rec progress.Recorder
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}

	op := func(context.Context) (string, error) {
		cancel()
		return "", errors.New("boom")
	}
	_, err := withRetry(ctx, newTestRunner(&rec, p), testStep, op)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, progress.StatusError, rec.Last().Status)
}

func TestRetryDelayCarriedInEvents(t *testing.T) {
	var rec progress.Recorder
	op, _ := failingOp(2)
	p := fastPolicy()

	_, err := withRetry(context.Background(), newTestRunner(&rec, p), testStep, op)
	require.NoError(t, err)

	states := rec.States()
	require.Len(t, states, 2)
	assert.Equal(t, p.Delay(1), states[0].RetryIn)
	assert.Equal(t, p.Delay(2), states[1].RetryIn)
}

func TestPolicyDelay(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 10*time.Second, p.Delay(4))
	assert.Equal(t, 10*time.Second, p.Delay(64), "no overflow past the ceiling")

	prev := time.Duration(0)
	for n := 1; n <= 20; n++ {
		d := p.Delay(n)
		assert.GreaterOrEqual(t, d, prev, "non-decreasing at n=%d", n)
		assert.LessOrEqual(t, d, p.MaxDelay)
		prev = d
	}
}

func TestPolicyNormalized(t *testing.T) {
	p := Policy{}.normalized()
	assert.Equal(t, DefaultPolicy(), p)

	p = Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Millisecond}.normalized()
	assert.Equal(t, time.Second, p.MaxDelay)
}

func TestFormatDelay(t *testing.T) {
	assert.Equal(t, "2s", formatDelay(2*time.Second))
	assert.Equal(t, "10s", formatDelay(10*time.Second))
	assert.Equal(t, "2ms", formatDelay(2*time.Millisecond))
}
