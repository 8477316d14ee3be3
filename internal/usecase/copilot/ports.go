package copilot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/pkg/ai"
)

// ChatCompleter is the reasoning service client
type ChatCompleter interface {
	Complete(ctx context.Context, req ai.ChatRequest) (*ai.Completion, error)
}

// Event types pushed to subscribers
const (
	EventSuggestionsUpdated      = "copilot_suggestions_updated"
	EventSuggestionStatusUpdated = "copilot_suggestion_status_updated"
)

// Event is a meeting scoped notification
type Event struct {
	Type      string    `json:"type"`
	MeetingID uuid.UUID `json:"meeting_id"`
	Data      any       `json:"data"`
	SentAt    time.Time `json:"sent_at"`
}

// SuggestionsUpdated is the data of EventSuggestionsUpdated
type SuggestionsUpdated struct {
	MeetingID   uuid.UUID              `json:"meeting_id"`
	RunID       uuid.UUID              `json:"run_id"`
	Suggestions []*entities.Suggestion `json:"suggestions"`
}

// SuggestionStatusUpdated is the data of EventSuggestionStatusUpdated
type SuggestionStatusUpdated struct {
	SuggestionID uuid.UUID                 `json:"suggestion_id"`
	Status       entities.SuggestionStatus `json:"status"`
	MeetingID    uuid.UUID                 `json:"meeting_id"`
}

// Notifier delivers events. Delivery failures are logged by the caller and never fail a run.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// MeetingLocker grants the per-meeting execution slot
type MeetingLocker interface {
	// TryLock returns ok=false when another attempt holds the slot
	TryLock(ctx context.Context, meetingID uuid.UUID) (unlock func(), ok bool, err error)
	// Lock waits for the slot until ctx is done
	Lock(ctx context.Context, meetingID uuid.UUID) (unlock func(), err error)
}

// Debouncer admits at most one event per key within window
type Debouncer interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
}

// RunArchive keeps a copy of each successful run's sanitized output
type RunArchive interface {
	Store(ctx context.Context, run *entities.CopilotRun, out *entities.SanitizedOutput) (key string, err error)
}

// Metrics receives pipeline telemetry
type Metrics interface {
	ObserveGatewayCall(outcome string, attempts int, elapsed time.Duration)
	ObserveRun(mode entities.RunMode, status entities.RunStatus, elapsed time.Duration)
	AddSuggestions(t entities.SuggestionType, action string, n int)
	ObserveReview(action string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveGatewayCall(string, int, time.Duration) {}
func (noopMetrics) ObserveRun(entities.RunMode, entities.RunStatus, time.Duration) {}
func (noopMetrics) AddSuggestions(entities.SuggestionType, string, int) {}
func (noopMetrics) ObserveReview(string) {}

func newEvent(eventType string, meetingID uuid.UUID, data any) Event {
	return Event{Type: eventType, MeetingID: meetingID, Data: data, SentAt: time.Now().UTC()}
}
