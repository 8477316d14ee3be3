package entities

import (
	"time"

	"github.com/google/uuid"
)

// Meeting is owned by the meeting subsystem; the copilot only reads it
type Meeting struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title              string     `gorm:"type:varchar(255);not null" json:"title"`
	Description        *string    `gorm:"type:text" json:"description,omitempty"`
	LanguagePreference string     `gorm:"type:varchar(10);not null;default:'en'" json:"language_preference"`
	HostID             *uuid.UUID `gorm:"type:uuid;index" json:"host_id,omitempty"`
	LivekitRoomName    *string    `gorm:"type:varchar(255);unique" json:"livekit_room_name,omitempty"`
	ScheduledStartTime *time.Time `gorm:"index" json:"scheduled_start_time,omitempty"`
	CreatedAt          time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// Language returns the meeting's preferred copilot language, or fallback when unset or unsupported
func (m *Meeting) Language(fallback Language) Language {
	lang := Language(m.LanguagePreference)
	if lang.IsSupported() {
		return lang
	}
	return fallback
}

// MeetingContext is rebuilt for every run and never persisted
type MeetingContext struct {
	Title                   string
	Description             string
	Language                Language
	Participants            []Participant
	SpeakerCount            int
	ExistingSuggestionCount int
	MeetingTime             *time.Time
}

// Participant is a speaker label, resolved to a user when a mapping exists
type Participant struct {
	SpeakerLabel string
	DisplayName  string
	UserEmail    string
}
