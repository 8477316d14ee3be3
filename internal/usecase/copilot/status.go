package copilot

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
)

// Status summarizes a meeting's copilot activity
type Status struct {
	MeetingID       uuid.UUID
	IsLive          bool
	Suggestions     repositories.SuggestionCounts
	LatestRun       *entities.CopilotRun
	SpeakerMappings int
}

// GetStatus returns suggestion counts, the latest run and whether the meeting is live
func (o *Orchestrator) GetStatus(ctx context.Context, meetingID uuid.UUID) (*Status, error) {
	if err := o.ensureMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	counts, err := o.store.Suggestions().Count(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to count suggestions: %w", err)
	}
	latest, err := o.store.Runs().FindLatest(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	mappings, err := o.store.Speakers().ListMappings(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list speaker mappings: %w", err)
	}
	live, err := o.store.LiveSessions().FindActiveByMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get live session: %w", err)
	}

	status := &Status{
		MeetingID:       meetingID,
		IsLive:          live.IsActive(),
		LatestRun:       latest,
		SpeakerMappings: len(mappings),
	}
	if counts != nil {
		status.Suggestions = *counts
	}
	return status, nil
}

// ListSuggestions returns a meeting's suggestions, newest first
func (o *Orchestrator) ListSuggestions(ctx context.Context, meetingID uuid.UUID, filters repositories.SuggestionFilters) ([]*entities.Suggestion, error) {
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown suggestion type %q", ucerr.ErrInvalidInput, *filters.Type)
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown suggestion status %q", ucerr.ErrInvalidInput, *filters.Status)
	}
	if err := o.ensureMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	suggestions, err := o.store.Suggestions().List(ctx, meetingID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, nil
}

// ListRuns returns a meeting's runs, most recent first
func (o *Orchestrator) ListRuns(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.CopilotRun, error) {
	if err := o.ensureMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	runs, err := o.store.Runs().List(ctx, meetingID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a single run
func (o *Orchestrator) GetRun(ctx context.Context, runID uuid.UUID) (*entities.CopilotRun, error) {
	run, err := o.store.Runs().FindByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("copilot run %w", ucerr.ErrNotFound)
	}
	return run, nil
}

func (o *Orchestrator) ensureMeeting(ctx context.Context, meetingID uuid.UUID) error {
	meeting, err := o.store.Meetings().FindByID(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("failed to get meeting: %w", err)
	}
	if meeting == nil {
		return ucerr.ErrMeetingNotFound
	}
	return nil
}
