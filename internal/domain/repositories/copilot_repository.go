package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
)

// SuggestionFilters narrows suggestion listings
type SuggestionFilters struct {
	Type   *entities.SuggestionType
	Status *entities.SuggestionStatus
	Limit  int
}

// SuggestionCounts groups suggestion totals for the status view
type SuggestionCounts struct {
	ByStatus map[entities.SuggestionStatus]int64
	ByType   map[entities.SuggestionType]int64
	Total    int64
}

// SuggestionRepository defines persistence operations for copilot suggestions
type SuggestionRepository interface {
	Create(ctx context.Context, s *entities.Suggestion) error
	Update(ctx context.Context, s *entities.Suggestion) error

	// FindByID retrieves a suggestion by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Suggestion, error)

	// FindByIDForUpdate retrieves a suggestion holding an exclusive row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Suggestion, error)

	// ListOpen returns the meeting's proposed and edited suggestions
	ListOpen(ctx context.Context, meetingID uuid.UUID) ([]*entities.Suggestion, error)

	// ListAccepted returns accepted suggestions, oldest first
	ListAccepted(ctx context.Context, meetingID uuid.UUID) ([]*entities.Suggestion, error)

	// List returns suggestions matching filters, newest first
	List(ctx context.Context, meetingID uuid.UUID, filters SuggestionFilters) ([]*entities.Suggestion, error)

	Count(ctx context.Context, meetingID uuid.UUID) (*SuggestionCounts, error)

	// DeleteRejectedBefore removes rejected suggestions created before cutoff
	DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunRepository defines persistence operations for copilot runs
type RunRepository interface {
	Create(ctx context.Context, run *entities.CopilotRun) error
	Update(ctx context.Context, run *entities.CopilotRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.CopilotRun, error)

	// FindLatest returns the most recently started run of a meeting, or nil
	FindLatest(ctx context.Context, meetingID uuid.UUID) (*entities.CopilotRun, error)

	// List returns runs ordered by started_at desc
	List(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.CopilotRun, error)

	// ListStale returns runs still started before cutoff
	ListStale(ctx context.Context, cutoff time.Time) ([]*entities.CopilotRun, error)

	// DeleteFinishedBefore removes successful and failed runs started before cutoff
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MinutesRepository is the receiving end of materialized suggestions
type MinutesRepository interface {
	// FindOrCreateForUpdate returns the meeting's minutes, locked, creating them when missing
	FindOrCreateForUpdate(ctx context.Context, meetingID uuid.UUID) (*entities.Minutes, error)
	Save(ctx context.Context, minutes *entities.Minutes) error
	CreateActionItem(ctx context.Context, item *entities.ActionItem) error
}

// Store groups the repositories and runs work inside a single transaction
type Store interface {
	Meetings() MeetingRepository
	LiveSessions() LiveSessionRepository
	Speakers() SpeakerRepository
	Users() UserRepository
	Transcripts() TranscriptRepository
	Suggestions() SuggestionRepository
	Runs() RunRepository
	Minutes() MinutesRepository

	// Transaction runs fn with a Store bound to one transaction; any error rolls everything back
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
