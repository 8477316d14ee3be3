package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TranscriptSegment is one finalized or interim utterance produced by transcription
type TranscriptSegment struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID          uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index:idx_segments_meeting_start"`
	StartMs            int64     `json:"start_ms" gorm:"not null;index:idx_segments_meeting_start"`
	EndMs              int64     `json:"end_ms" gorm:"not null"`
	SpeakerLabel       string    `json:"speaker_label" gorm:"type:varchar(50)"`
	SpeakerDisplayName *string   `json:"speaker_display_name,omitempty" gorm:"type:varchar(255)"`
	Text               string    `json:"text" gorm:"type:text;not null"`
	Confidence         float64   `json:"confidence" gorm:"default:0.0"`
	IsFinal            bool      `json:"is_final" gorm:"default:false;index"`
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptSegment) TableName() string {
	return "transcript_segments"
}

// Speaker returns the display name when known, else the diarization label
func (s *TranscriptSegment) Speaker() string {
	if s.SpeakerDisplayName != nil && *s.SpeakerDisplayName != "" {
		return *s.SpeakerDisplayName
	}
	if s.SpeakerLabel != "" {
		return s.SpeakerLabel
	}
	return "Unknown"
}

// OffsetSeconds formats the start offset the way prompts cite it
func (s *TranscriptSegment) OffsetSeconds() string {
	return fmt.Sprintf("%.1f", float64(s.StartMs)/1000)
}
