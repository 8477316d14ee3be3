package copilot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

// SessionRegistry owns the live session record of each meeting. Sessions are
// created by Open and torn down by End; nothing else mutates them.
type SessionRegistry struct {
	store  repositories.Store
	logger *zap.Logger
}

func NewSessionRegistry(store repositories.Store, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{store: store, logger: logger}
}

// Open starts a live session for the meeting, or returns the one already active
func (r *SessionRegistry) Open(ctx context.Context, meetingID uuid.UUID, roomSID string) (*entities.LiveSession, error) {
	var session *entities.LiveSession
	err := r.store.Transaction(ctx, func(tx repositories.Store) error {
		active, err := tx.LiveSessions().FindActiveByMeeting(ctx, meetingID)
		if err != nil {
			return err
		}
		if active != nil {
			session = active
			return nil
		}

		session = entities.NewLiveSession(meetingID)
		if roomSID != "" {
			session.LivekitRoomSID = &roomSID
		}
		return tx.LiveSessions().Create(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open live session: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("🟢 Live session open",
			zap.String("meeting_id", meetingID.String()),
			zap.String("session_id", session.ID.String()),
		)
	}
	return session, nil
}

// Get returns the active session of a meeting, or nil
func (r *SessionRegistry) Get(ctx context.Context, meetingID uuid.UUID) (*entities.LiveSession, error) {
	return r.store.LiveSessions().FindActiveByMeeting(ctx, meetingID)
}

// End closes the active session. It returns nil when the meeting was not live.
func (r *SessionRegistry) End(ctx context.Context, meetingID uuid.UUID) (*entities.LiveSession, error) {
	session, err := r.store.LiveSessions().FindActiveByMeeting(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get live session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	session.End()
	if err := r.store.LiveSessions().Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to end live session: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("🔴 Live session ended",
			zap.String("meeting_id", meetingID.String()),
			zap.String("session_id", session.ID.String()),
		)
	}
	return session, nil
}
