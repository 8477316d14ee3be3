package copilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
	"github.com/johnquangdev/meeting-copilot/pkg/jobcontext"
)

// RunQueue is the bounded backlog of run requests served by the worker pool
type RunQueue struct {
	orchestrator *Orchestrator
	jobs         chan RunRequest
	cfg          config.CopilotConfig
	logger       *zap.Logger
}

func NewRunQueue(orchestrator *Orchestrator, cfg config.CopilotConfig, logger *zap.Logger) *RunQueue {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	return &RunQueue{
		orchestrator: orchestrator,
		jobs:         make(chan RunRequest, size),
		cfg:          cfg,
		logger:       logger,
	}
}

// TrySubmit enqueues without blocking and reports whether there was room
func (q *RunQueue) TrySubmit(req RunRequest) bool {
	select {
	case q.jobs <- req:
		return true
	default:
		return false
	}
}

// Submit waits for room in the queue until ctx is done
func (q *RunQueue) Submit(ctx context.Context, req RunRequest) error {
	select {
	case q.jobs <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len is the number of queued requests
func (q *RunQueue) Len() int {
	return len(q.jobs)
}

// Process runs one request with outer retries. When every attempt fails with a
// retryable error a synthetic failed run is recorded for the meeting.
func (q *RunQueue) Process(ctx context.Context, workerID int, req RunRequest) error {
	jobID := uuid.New()
	jobCtx, cancel := jobcontext.JobBegin(ctx, jobID, "copilot_"+string(req.Mode), workerID, jobcontext.Options{
		Timeout:    q.cfg.RunTimeout,
		MaxRetries: q.cfg.RunAttempts,
		BaseDelay:  q.cfg.RunRetryBase,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			if q.logger != nil {
				q.logger.Warn("🔁 Retrying copilot job",
					zap.String("job_id", jobID.String()),
					zap.String("meeting_id", req.MeetingID.String()),
					zap.Int("attempt", attempt),
					zap.Duration("delay", delay),
					zap.Error(err),
				)
			}
		},
	})
	defer cancel()

	// the deadline only gates new attempts, Execute detaches once a run is recorded
	err := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		_, err := q.orchestrator.Execute(ctx, req)
		return err
	})

	switch {
	case err == nil:
		if q.logger != nil {
			q.logger.Info("✅ Copilot job completed",
				zap.String("job_id", jobID.String()),
				zap.String("meeting_id", req.MeetingID.String()),
				zap.String("trigger", string(req.Trigger)),
				zap.Duration("elapsed", jobcontext.Elapsed(jobCtx)),
			)
		}
		return nil

	case errors.Is(err, ucerr.ErrRunInProgress):
		if q.logger != nil {
			q.logger.Info("⏭️ Copilot run already in progress, skipping",
				zap.String("meeting_id", req.MeetingID.String()),
			)
		}
		return nil

	case errors.Is(err, jobcontext.ErrRetriesExhausted):
		q.recordExhausted(ctx, req, err)
	}

	if q.logger != nil {
		q.logger.Error("❌ Copilot job failed",
			zap.String("job_id", jobID.String()),
			zap.String("meeting_id", req.MeetingID.String()),
			zap.String("mode", string(req.Mode)),
			zap.Error(err),
		)
	}
	return err
}

func (q *RunQueue) recordExhausted(ctx context.Context, req RunRequest, cause error) {
	run := entities.NewCopilotRun(req.MeetingID, req.Mode, q.orchestrator.gateway.Provider(), q.orchestrator.gateway.Model(), 0)
	_ = run.MarkFailed(fmt.Sprintf("exhausted %d attempts: %v", q.cfg.RunAttempts, cause))

	if err := q.orchestrator.store.Runs().Create(context.WithoutCancel(ctx), run); err != nil && q.logger != nil {
		q.logger.Error("❌ Failed to record exhausted copilot run",
			zap.String("meeting_id", req.MeetingID.String()),
			zap.Error(err),
		)
	}
}
