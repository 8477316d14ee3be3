package copilot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
)

const debounceKeyPrefix = "copilot:debounce:"

// Dispatcher turns transcription and session signals into queued runs
type Dispatcher struct {
	queue     *RunQueue
	registry  *SessionRegistry
	debouncer Debouncer
	cfg       config.CopilotConfig
	logger    *zap.Logger
}

// NewDispatcher builds a dispatcher. debouncer may be nil.
func NewDispatcher(queue *RunQueue, registry *SessionRegistry, debouncer Debouncer, cfg config.CopilotConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		registry:  registry,
		debouncer: debouncer,
		cfg:       cfg,
		logger:    logger,
	}
}

// OnLiveSessionStarted records the meeting as live
func (d *Dispatcher) OnLiveSessionStarted(ctx context.Context, meetingID uuid.UUID, roomSID string) error {
	_, err := d.registry.Open(ctx, meetingID, roomSID)
	return err
}

// OnSegmentFinalized queues an incremental run while the meeting is live.
// Signals arriving within the realtime interval of the last queued one are dropped.
func (d *Dispatcher) OnSegmentFinalized(ctx context.Context, meetingID uuid.UUID, segmentID string) error {
	session, err := d.registry.Get(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("failed to get live session: %w", err)
	}
	if !session.IsActive() {
		return nil
	}

	if !d.allow(ctx, meetingID) {
		if d.logger != nil {
			d.logger.Debug("⏭️ Segment trigger debounced",
				zap.String("meeting_id", meetingID.String()),
				zap.String("segment_id", segmentID),
			)
		}
		return nil
	}

	req := RunRequest{MeetingID: meetingID, Mode: entities.RunModeRealtime, Trigger: TriggerSegmentFinalized}
	if !d.queue.TrySubmit(req) {
		if d.logger != nil {
			d.logger.Warn("⚠️ Copilot queue full, dropping segment trigger",
				zap.String("meeting_id", meetingID.String()),
				zap.Int("queued", d.queue.Len()),
			)
		}
		return ucerr.ErrRunInProgress
	}
	return nil
}

// OnLiveSessionEnded closes the live session and queues the post-meeting run.
// The run is queued even if no session was open.
func (d *Dispatcher) OnLiveSessionEnded(ctx context.Context, meetingID uuid.UUID) error {
	if _, err := d.registry.End(ctx, meetingID); err != nil {
		return err
	}

	req := RunRequest{MeetingID: meetingID, Mode: entities.RunModePostMeeting, Trigger: TriggerSessionEnded}
	if err := d.queue.Submit(ctx, req); err != nil {
		return fmt.Errorf("failed to queue post-meeting run: %w", err)
	}

	if d.logger != nil {
		d.logger.Info("📥 Post-meeting run queued",
			zap.String("meeting_id", meetingID.String()),
		)
	}
	return nil
}

// allow fails open: a broken debouncer must not stop realtime runs
func (d *Dispatcher) allow(ctx context.Context, meetingID uuid.UUID) bool {
	if d.debouncer == nil || d.cfg.RealtimeMinInterval <= 0 {
		return true
	}
	ok, err := d.debouncer.Allow(ctx, debounceKeyPrefix+meetingID.String(), d.cfg.RealtimeMinInterval)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("⚠️ Debounce check failed",
				zap.String("meeting_id", meetingID.String()),
				zap.Error(err),
			)
		}
		return true
	}
	return ok
}
