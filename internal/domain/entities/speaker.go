package entities

import (
	"time"

	"github.com/google/uuid"
)

// Speaker is a diarized voice in a meeting
type Speaker struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex:idx_speaker_meeting_label"`
	Label       string    `json:"label" gorm:"type:varchar(50);not null;uniqueIndex:idx_speaker_meeting_label"`
	DisplayName *string   `json:"display_name,omitempty" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Speaker) TableName() string {
	return "speakers"
}

// SpeakerUserMap links a speaker to a known user of the same meeting
type SpeakerUserMap struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID  `json:"meeting_id" gorm:"type:uuid;not null;index"`
	SpeakerID uuid.UUID  `json:"speaker_id" gorm:"type:uuid;not null;uniqueIndex"`
	Speaker   *Speaker   `json:"speaker,omitempty" gorm:"foreignKey:SpeakerID"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	User      *User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (SpeakerUserMap) TableName() string {
	return "speaker_user_maps"
}
