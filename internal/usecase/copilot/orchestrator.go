package copilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
)

// Trigger records what asked for a run
type Trigger string

const (
	TriggerSegmentFinalized Trigger = "segment_finalized"
	TriggerSessionEnded     Trigger = "live_session_ended"
	TriggerExplicit         Trigger = "explicit"
)

// RunRequest asks for one orchestration attempt
type RunRequest struct {
	MeetingID uuid.UUID
	Mode      entities.RunMode
	Trigger   Trigger
}

// Orchestrator drives prompt building, the model gateway, validation and merging
// for one meeting at a time, and applies reviewer decisions.
type Orchestrator struct {
	store     repositories.Store
	gateway   *ModelGateway
	validator *OutputValidator
	merger    *MergeEngine
	locker    MeetingLocker
	notifier  Notifier
	archive   RunArchive
	metrics   Metrics
	cfg       config.CopilotConfig
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline. notifier, archive and metrics may be nil.
func NewOrchestrator(
	store repositories.Store,
	gateway *ModelGateway,
	locker MeetingLocker,
	notifier Notifier,
	archive RunArchive,
	metrics Metrics,
	cfg config.CopilotConfig,
	logger *zap.Logger,
) *Orchestrator {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Orchestrator{
		store:     store,
		gateway:   gateway,
		validator: NewOutputValidator(),
		merger:    NewMergeEngine(cfg.DefaultConfidence, logger),
		locker:    locker,
		notifier:  notifier,
		archive:   archive,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// Execute runs one attempt. It returns (nil, nil) when a segment trigger is
// skipped: no live session, or fewer final segments than the realtime minimum.
// A run that was created is always returned, finalized, alongside any failure.
func (o *Orchestrator) Execute(ctx context.Context, req RunRequest) (*entities.CopilotRun, error) {
	if !req.Mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown run mode %q", ucerr.ErrInvalidInput, req.Mode)
	}

	meeting, err := o.store.Meetings().FindByID(ctx, req.MeetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting == nil {
		return nil, ucerr.ErrMeetingNotFound
	}

	unlock, err := o.acquire(ctx, req)
	if err != nil {
		return nil, err
	}
	defer unlock()

	window, skip, err := o.window(ctx, meeting, req)
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, nil
	}

	return o.run(ctx, meeting, req.Mode, window)
}

func (o *Orchestrator) acquire(ctx context.Context, req RunRequest) (func(), error) {
	if req.Mode == entities.RunModeRealtime {
		unlock, ok, err := o.locker.TryLock(ctx, req.MeetingID)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire meeting lock: %w", err)
		}
		if !ok {
			return nil, ucerr.ErrRunInProgress
		}
		return unlock, nil
	}

	waitCtx := ctx
	if o.cfg.LockWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, o.cfg.LockWait)
		defer cancel()
	}
	unlock, err := o.locker.Lock(waitCtx, req.MeetingID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ucerr.ErrRunInProgress
		}
		return nil, fmt.Errorf("failed to acquire meeting lock: %w", err)
	}
	return unlock, nil
}

// window loads the transcript input for the mode. skip reports that a segment
// trigger should not produce a run at all.
func (o *Orchestrator) window(ctx context.Context, meeting *entities.Meeting, req RunRequest) ([]*entities.TranscriptSegment, bool, error) {
	if req.Mode == entities.RunModePostMeeting {
		segments, err := o.store.Transcripts().ListFinal(ctx, meeting.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to list transcript segments: %w", err)
		}
		return segments, false, nil
	}

	if req.Trigger == TriggerSegmentFinalized {
		live, err := o.store.LiveSessions().FindActiveByMeeting(ctx, meeting.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get live session: %w", err)
		}
		if !live.IsActive() {
			return nil, true, nil
		}
	}

	segments, err := o.store.Transcripts().ListRecentFinal(ctx, meeting.ID, o.cfg.RealtimeWindow)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list transcript segments: %w", err)
	}
	if req.Trigger == TriggerSegmentFinalized && len(segments) < o.cfg.RealtimeMinSegments {
		if o.logger != nil {
			o.logger.Debug("⏭️ Not enough segments for realtime run",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Int("segment_count", len(segments)),
			)
		}
		return nil, true, nil
	}
	return segments, false, nil
}

// run has no mid-flight cancellation: once the run record exists it finishes
// regardless of the caller. The model call's own timeout is the only deadline.
func (o *Orchestrator) run(ctx context.Context, meeting *entities.Meeting, mode entities.RunMode, window []*entities.TranscriptSegment) (*entities.CopilotRun, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	run := entities.NewCopilotRun(meeting.ID, mode, o.gateway.Provider(), o.gateway.Model(), len(window))
	if err := o.store.Runs().Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create copilot run: %w", err)
	}

	if o.logger != nil {
		o.logger.Info("🚀 Copilot run started",
			zap.String("run_id", run.ID.String()),
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("mode", string(mode)),
			zap.Int("segment_count", len(window)),
		)
	}

	if len(window) == 0 {
		return o.failRun(ctx, run, start, ucerr.ErrNoSegments)
	}

	accepted, err := o.store.Suggestions().ListAccepted(ctx, meeting.ID)
	if err != nil {
		return o.failRun(ctx, run, start, err)
	}
	mc, err := o.buildContext(ctx, meeting, len(accepted))
	if err != nil {
		return o.failRun(ctx, run, start, err)
	}

	out, err := o.gateway.Generate(ctx, window, mc, mc.Language, ExistingItemsFrom(accepted))
	if err != nil {
		return o.failRun(ctx, run, start, err)
	}

	sanitized, err := o.validator.Validate(out)
	if err != nil {
		return o.failRun(ctx, run, start, err)
	}

	var merged *MergeResult
	finished := *run
	err = o.store.Transaction(ctx, func(tx repositories.Store) error {
		result, err := o.merger.MergeOrCreate(ctx, tx, meeting.ID, sanitized, &finished)
		if err != nil {
			return err
		}
		if err := finished.MarkSuccess(len(result.Suggestions), out.Metadata); err != nil {
			return err
		}
		if err := tx.Runs().Update(ctx, &finished); err != nil {
			return fmt.Errorf("failed to update copilot run: %w", err)
		}
		merged = result
		return nil
	})
	if err != nil {
		return o.failRun(ctx, run, start, err)
	}
	*run = finished

	o.archiveRun(ctx, run, sanitized)

	for t, n := range merged.Created {
		o.metrics.AddSuggestions(t, "created", n)
	}
	for t, n := range merged.Merged {
		o.metrics.AddSuggestions(t, "merged", n)
	}
	o.metrics.ObserveRun(mode, run.Status, time.Since(start))

	if o.logger != nil {
		o.logger.Info("✅ Copilot run completed",
			zap.String("run_id", run.ID.String()),
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("mode", string(mode)),
			zap.Int("suggestion_count", run.SuggestionCount),
			zap.Duration("elapsed", time.Since(start)),
		)
	}

	o.notify(ctx, newEvent(EventSuggestionsUpdated, meeting.ID, SuggestionsUpdated{
		MeetingID:   meeting.ID,
		RunID:       run.ID,
		Suggestions: merged.Suggestions,
	}))

	return run, nil
}

// failRun records the failure on the run and returns it with the cause.
// A meeting without transcript is recorded as failed but is not an error for the caller.
func (o *Orchestrator) failRun(ctx context.Context, run *entities.CopilotRun, start time.Time, cause error) (*entities.CopilotRun, error) {
	if err := run.MarkFailed(cause.Error()); err != nil {
		return run, cause
	}

	if err := o.store.Runs().Update(ctx, run); err != nil && o.logger != nil {
		o.logger.Error("❌ Failed to record copilot run failure",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}
	o.metrics.ObserveRun(run.Mode, run.Status, time.Since(start))

	if o.logger != nil {
		o.logger.Error("❌ Copilot run failed",
			zap.String("run_id", run.ID.String()),
			zap.String("meeting_id", run.MeetingID.String()),
			zap.String("mode", string(run.Mode)),
			zap.Error(cause),
		)
	}

	if errors.Is(cause, ucerr.ErrNoSegments) {
		return run, nil
	}
	return run, cause
}

func (o *Orchestrator) buildContext(ctx context.Context, meeting *entities.Meeting, acceptedCount int) (entities.MeetingContext, error) {
	mc := entities.MeetingContext{
		Title:                   meeting.Title,
		Language:                meeting.Language(entities.Language(o.cfg.DefaultLanguage)),
		ExistingSuggestionCount: acceptedCount,
	}
	if meeting.Description != nil {
		mc.Description = *meeting.Description
	}
	if meeting.ScheduledStartTime != nil {
		mc.MeetingTime = meeting.ScheduledStartTime
	} else if !meeting.CreatedAt.IsZero() {
		t := meeting.CreatedAt
		mc.MeetingTime = &t
	}

	mappings, err := o.store.Speakers().ListMappings(ctx, meeting.ID)
	if err != nil {
		return mc, fmt.Errorf("failed to list speaker mappings: %w", err)
	}
	for _, m := range mappings {
		p := entities.Participant{}
		if m.Speaker != nil {
			p.SpeakerLabel = m.Speaker.Label
			if m.Speaker.DisplayName != nil {
				p.DisplayName = *m.Speaker.DisplayName
			}
		}
		if m.User != nil {
			p.UserEmail = m.User.Email
		}
		mc.Participants = append(mc.Participants, p)
	}

	count, err := o.store.Speakers().CountByMeeting(ctx, meeting.ID)
	if err != nil {
		return mc, fmt.Errorf("failed to count speakers: %w", err)
	}
	mc.SpeakerCount = int(count)
	return mc, nil
}

func (o *Orchestrator) archiveRun(ctx context.Context, run *entities.CopilotRun, out *entities.SanitizedOutput) {
	if o.archive == nil {
		return
	}
	key, err := o.archive.Store(ctx, run, out)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("⚠️ Failed to archive copilot run",
				zap.String("run_id", run.ID.String()),
				zap.Error(err),
			)
		}
		return
	}
	run.ArchiveKey = &key
	if err := o.store.Runs().Update(ctx, run); err != nil && o.logger != nil {
		o.logger.Warn("⚠️ Failed to save archive key",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) notify(ctx context.Context, event Event) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Publish(ctx, event); err != nil && o.logger != nil {
		o.logger.Warn("⚠️ Failed to publish copilot event",
			zap.String("type", event.Type),
			zap.String("meeting_id", event.MeetingID.String()),
			zap.Error(err),
		)
	}
}
