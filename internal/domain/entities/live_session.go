package entities

import (
	"time"

	"github.com/google/uuid"
)

// LiveSessionStatus represents whether a meeting is currently live
type LiveSessionStatus string

const (
	LiveSessionStatusActive LiveSessionStatus = "active"
	LiveSessionStatusEnded  LiveSessionStatus = "ended"
)

// LiveSession is one live period of a meeting
type LiveSession struct {
	ID             uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID      uuid.UUID         `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Status         LiveSessionStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	LivekitRoomSID *string           `json:"livekit_room_sid,omitempty" gorm:"type:varchar(255)"`
	StartedAt      time.Time         `json:"started_at" gorm:"type:timestamp;not null"`
	EndedAt        *time.Time        `json:"ended_at,omitempty" gorm:"type:timestamp"`
	CreatedAt      time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (LiveSession) TableName() string {
	return "live_sessions"
}

// NewLiveSession creates an active session
func NewLiveSession(meetingID uuid.UUID) *LiveSession {
	now := time.Now()
	return &LiveSession{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Status:    LiveSessionStatusActive,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive checks if the session has not ended
func (s *LiveSession) IsActive() bool {
	if s == nil {
		return false
	}
	return s.Status == LiveSessionStatusActive && s.EndedAt == nil
}

// End closes the session
func (s *LiveSession) End() {
	now := time.Now()
	s.Status = LiveSessionStatusEnded
	s.EndedAt = &now
	s.UpdatedAt = now
}
