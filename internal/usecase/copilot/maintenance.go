package copilot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CleanupResult counts what a retention pass removed
type CleanupResult struct {
	RunsDeleted        int64 `json:"runs_deleted"`
	SuggestionsDeleted int64 `json:"suggestions_deleted"`
}

// CleanupExpired deletes finished runs and rejected suggestions older than the retention period
func (o *Orchestrator) CleanupExpired(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult
	cutoff := time.Now().Add(-o.cfg.Retention)

	runs, err := o.store.Runs().DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to delete expired runs: %w", err)
	}
	result.RunsDeleted = runs

	suggestions, err := o.store.Suggestions().DeleteRejectedBefore(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to delete expired suggestions: %w", err)
	}
	result.SuggestionsDeleted = suggestions

	if o.logger != nil && (runs > 0 || suggestions > 0) {
		o.logger.Info("🧹 Copilot retention cleanup",
			zap.Int64("runs_deleted", runs),
			zap.Int64("suggestions_deleted", suggestions),
			zap.Time("cutoff", cutoff),
		)
	}
	return result, nil
}

// SweepStaleRuns times out runs that stayed in started status past the stale threshold
func (o *Orchestrator) SweepStaleRuns(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-o.cfg.StaleRunAfter)
	runs, err := o.store.Runs().ListStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale runs: %w", err)
	}

	var swept int64
	for _, run := range runs {
		if err := run.MarkTimedOut(fmt.Sprintf("no result after %s", o.cfg.StaleRunAfter)); err != nil {
			continue
		}
		if err := o.store.Runs().Update(ctx, run); err != nil {
			return swept, fmt.Errorf("failed to update stale run: %w", err)
		}
		o.metrics.ObserveRun(run.Mode, run.Status, time.Since(run.StartedAt))
		swept++

		if o.logger != nil {
			o.logger.Warn("🧟 Stale copilot run timed out",
				zap.String("run_id", run.ID.String()),
				zap.String("meeting_id", run.MeetingID.String()),
				zap.Time("started_at", run.StartedAt),
			)
		}
	}
	return swept, nil
}
