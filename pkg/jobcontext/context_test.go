package jobcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classified struct {
	msg       string
	temporary bool
}

func (e classified) Error() string   { return e.msg }
func (e classified) Temporary() bool { return e.temporary }

func begin(t *testing.T, retries int) context.Context {
	t.Helper()
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "test", 7, Options{
		Timeout:    time.Second,
		MaxRetries: retries,
		BaseDelay:  time.Millisecond,
	})
	t.Cleanup(cancel)
	return ctx
}

func TestJobBegin_Metadata(t *testing.T) {
	jobID := uuid.New()
	ctx, cancel := JobBegin(context.Background(), jobID, "copilot_realtime", 3, Options{})
	defer cancel()

	meta := GetJobMetadata(ctx)
	assert.Equal(t, jobID, meta.JobID)
	assert.Equal(t, "copilot_realtime", meta.JobType)
	assert.Equal(t, 3, meta.WorkerID)
	assert.Equal(t, 0, meta.RetryAttempt)
	assert.Equal(t, defaultMaxRetries, meta.MaxRetries)
	assert.Equal(t, defaultBaseDelay, GetBaseDelay(ctx))

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(defaultTimeout), deadline, time.Second)
}

func TestJobEnd_RetriesUntilSuccess(t *testing.T) {
	ctx := begin(t, 3)
	var attempts []int

	err := JobEnd(ctx, func(ctx context.Context) error {
		attempts = append(attempts, GetRetryAttempt(ctx))
		if len(attempts) < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestJobEnd_Exhausted(t *testing.T) {
	ctx := begin(t, 2)
	cause := classified{msg: "upstream busy", temporary: true}
	calls := 0

	err := JobEnd(ctx, func(context.Context) error {
		calls++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, cause)
}

func TestJobEnd_OnRetry(t *testing.T) {
	type retry struct {
		attempt int
		delay   time.Duration
	}
	var retries []retry
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "test", 1, Options{
		Timeout:    time.Second,
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			assert.EqualError(t, err, "connection refused")
			retries = append(retries, retry{attempt, delay})
		},
	})
	defer cancel()

	err := JobEnd(ctx, func(context.Context) error { return errors.New("connection refused") })
	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, []retry{{1, 2 * time.Millisecond}, {2, 4 * time.Millisecond}}, retries)
	assert.Positive(t, Elapsed(ctx))
	assert.Zero(t, Elapsed(context.Background()))
}

func TestJobEnd_NonRetryable(t *testing.T) {
	ctx := begin(t, 5)
	calls := 0

	err := JobEnd(ctx, func(context.Context) error {
		calls++
		// classified errors win over message matching
		return classified{msg: "status 429", temporary: false}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
	assert.Contains(t, err.Error(), "non-retryable error")
}

func TestJobEnd_RecoversPanic(t *testing.T) {
	ctx := begin(t, 3)

	err := JobEnd(ctx, func(context.Context) error {
		panic("nil map")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic recovered: nil map")
}

func TestJobEnd_CancelledContext(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "test", 0, Options{MaxRetries: 1})
	cancel()
	called := false

	err := JobEnd(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp: i/o timeout"), true},
		{errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("upstream returned status 503"), true},
		{errors.New("record not found"), false},
		{classified{msg: "bad gateway", temporary: false}, false},
		{classified{msg: "whatever", temporary: true}, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryableError(tt.err), "%v", tt.err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Second, CalculateBackoff(0, time.Second))
	assert.Equal(t, 8*time.Second, CalculateBackoff(3, time.Second))
	assert.Equal(t, time.Second, CalculateBackoff(-2, time.Second))
	assert.Equal(t, maxBackoff, CalculateBackoff(10, time.Second))
	assert.Equal(t, maxBackoff, CalculateBackoff(90, time.Second))
}
