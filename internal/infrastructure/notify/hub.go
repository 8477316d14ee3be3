package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
)

const subscriptionBuffer = 16

// Subscription is one client listening to a meeting's events
type Subscription struct {
	ID        uuid.UUID
	MeetingID uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time

	events chan copilot.Event
	once   sync.Once
}

// Events is closed when the subscription is closed
func (s *Subscription) Events() <-chan copilot.Event {
	return s.events
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.events) })
}

// Hub fans events out to in-process subscribers. Every subscriber is an
// explicit record that is created by Subscribe and removed by Close.
type Hub struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*Subscription
	byMeeting map[uuid.UUID]map[uuid.UUID]*Subscription
	logger    *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions:  make(map[uuid.UUID]*Subscription),
		byMeeting: make(map[uuid.UUID]map[uuid.UUID]*Subscription),
		logger:    logger,
	}
}

// Subscribe registers a subscriber for a meeting
func (h *Hub) Subscribe(meetingID, userID uuid.UUID) *Subscription {
	sub := &Subscription{
		ID:        uuid.New(),
		MeetingID: meetingID,
		UserID:    userID,
		CreatedAt: time.Now(),
		events:    make(chan copilot.Event, subscriptionBuffer),
	}

	h.mu.Lock()
	h.sessions[sub.ID] = sub
	if h.byMeeting[meetingID] == nil {
		h.byMeeting[meetingID] = make(map[uuid.UUID]*Subscription)
	}
	h.byMeeting[meetingID][sub.ID] = sub
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Info("🔌 Subscriber connected",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("meeting_id", meetingID.String()),
		)
	}
	return sub
}

// Close removes a subscriber. Closing an unknown id is a no-op.
func (h *Hub) Close(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
		if subs := h.byMeeting[sub.MeetingID]; subs != nil {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.byMeeting, sub.MeetingID)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.close()

	if h.logger != nil {
		h.logger.Info("🔌 Subscriber disconnected",
			zap.String("subscription_id", id.String()),
			zap.String("meeting_id", sub.MeetingID.String()),
		)
	}
}

// Count returns the number of subscribers of a meeting
func (h *Hub) Count(meetingID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byMeeting[meetingID])
}

// Publish delivers the event to every subscriber of its meeting. Slow
// subscribers whose buffer is full miss the event.
func (h *Hub) Publish(_ context.Context, event copilot.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.byMeeting[event.MeetingID] {
		select {
		case sub.events <- event:
		default:
			if h.logger != nil {
				h.logger.Warn("⚠️ Subscriber buffer full, event dropped",
					zap.String("subscription_id", sub.ID.String()),
					zap.String("type", event.Type),
				)
			}
		}
	}
	return nil
}
