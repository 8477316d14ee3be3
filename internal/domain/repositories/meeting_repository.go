package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
)

// MeetingRepository reads meetings owned by the meeting subsystem
type MeetingRepository interface {
	// FindByID retrieves a meeting by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// FindByLivekitRoomName retrieves the meeting bound to a LiveKit room
	FindByLivekitRoomName(ctx context.Context, roomName string) (*entities.Meeting, error)
}

// LiveSessionRepository persists live session records
type LiveSessionRepository interface {
	Create(ctx context.Context, session *entities.LiveSession) error
	Update(ctx context.Context, session *entities.LiveSession) error

	// FindActiveByMeeting returns the open session of a meeting, or nil
	FindActiveByMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.LiveSession, error)
}

// SpeakerRepository reads diarized speakers and their user mappings
type SpeakerRepository interface {
	CountByMeeting(ctx context.Context, meetingID uuid.UUID) (int64, error)

	// ListMappings returns speaker→user mappings with Speaker and User preloaded
	ListMappings(ctx context.Context, meetingID uuid.UUID) ([]*entities.SpeakerUserMap, error)
}

// UserRepository is the identity lookup used to resolve assignees
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}
