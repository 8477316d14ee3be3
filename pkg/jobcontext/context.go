package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type metadataKey struct{}

const (
	defaultTimeout    = 5 * time.Minute
	defaultMaxRetries = 3
	defaultBaseDelay  = 5 * time.Second
	maxBackoff        = 60 * time.Second
)

// ErrRetriesExhausted wraps the last error once every attempt failed
var ErrRetriesExhausted = errors.New("max retries exceeded")

// JobMetadata describes the job an attempt belongs to
type JobMetadata struct {
	JobID        uuid.UUID
	JobType      string
	WorkerID     int
	RetryAttempt int
	MaxRetries   int
	BaseDelay    time.Duration
	StartTime    time.Time

	onRetry func(attempt int, delay time.Duration, err error)
}

// Options tune a job context. Zero values fall back to the defaults.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	// OnRetry is called before sleeping between attempts
	OnRetry func(attempt int, delay time.Duration, err error)
}

// JobBegin bounds the job by Options.Timeout and attaches its metadata
func JobBegin(parentCtx context.Context, jobID uuid.UUID, jobType string, workerID int, opts Options) (context.Context, context.CancelFunc) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}

	ctx, cancel := context.WithTimeout(parentCtx, opts.Timeout)
	meta := JobMetadata{
		JobID:      jobID,
		JobType:    jobType,
		WorkerID:   workerID,
		MaxRetries: opts.MaxRetries,
		BaseDelay:  opts.BaseDelay,
		StartTime:  time.Now(),
		onRetry:    opts.OnRetry,
	}
	return context.WithValue(ctx, metadataKey{}, meta), cancel
}

// JobEnd runs jobFunc until it succeeds, fails permanently or runs out of attempts.
// Panics are recovered into errors. Only errors accepted by IsRetryableError are retried.
func JobEnd(ctx context.Context, jobFunc func(context.Context) error) error {
	meta := metadata(ctx)

	var err error
	for attempt := meta.RetryAttempt; attempt < meta.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("job cancelled before attempt %d: %w", attempt, ctx.Err())
		}

		meta.RetryAttempt = attempt
		err = runAttempt(context.WithValue(ctx, metadataKey{}, meta), jobFunc)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}
		if attempt+1 >= meta.MaxRetries {
			break
		}

		delay := CalculateBackoff(attempt+1, meta.BaseDelay)
		if meta.onRetry != nil {
			meta.onRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w (%d): %w", ErrRetriesExhausted, meta.MaxRetries, err)
}

func runAttempt(ctx context.Context, jobFunc func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()
	return jobFunc(ctx)
}

func metadata(ctx context.Context) JobMetadata {
	if meta, ok := ctx.Value(metadataKey{}).(JobMetadata); ok {
		return meta
	}
	return JobMetadata{WorkerID: -1, MaxRetries: defaultMaxRetries, BaseDelay: defaultBaseDelay}
}

// GetJobMetadata returns a copy of the job metadata carried by ctx
func GetJobMetadata(ctx context.Context) *JobMetadata {
	meta := metadata(ctx)
	meta.onRetry = nil
	return &meta
}

// GetRetryAttempt is the zero-based attempt currently running
func GetRetryAttempt(ctx context.Context) int {
	return metadata(ctx).RetryAttempt
}

func GetBaseDelay(ctx context.Context) time.Duration {
	return metadata(ctx).BaseDelay
}

// Elapsed is the time since JobBegin, zero outside a job
func Elapsed(ctx context.Context) time.Duration {
	meta := metadata(ctx)
	if meta.StartTime.IsZero() {
		return 0
	}
	return time.Since(meta.StartTime)
}

// lower-cased fragments of transient network, Postgres and upstream failures
var retryableMarkers = []string{
	"context deadline exceeded",
	"connection refused",
	"connection reset",
	"network unreachable",
	"no such host",
	"i/o timeout",
	"deadlock",
	"40001",
	"40p01",
	"rate limit",
	"too many requests",
	"429",
	"status 5",
	"internal server error",
	"service unavailable",
	"bad gateway",
}

// IsRetryableError trusts errors that classify themselves through Temporary()
// and falls back to matching the message against known transient failures.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// CalculateBackoff returns 2^attempt * baseDelay, capped at 60 seconds
func CalculateBackoff(attempt int, baseDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return maxBackoff
	}

	backoff := time.Duration(1<<uint(attempt)) * baseDelay
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}
	return backoff
}
