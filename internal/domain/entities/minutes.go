package entities

import (
	"time"

	"github.com/google/uuid"
)

// MinutesSection is a list inside the minutes document
type MinutesSection string

const (
	MinutesSectionDecisions     MinutesSection = "decisions"
	MinutesSectionRisks         MinutesSection = "risks"
	MinutesSectionOpenQuestions MinutesSection = "open_questions"
)

// MinutesEntry is an accepted decision, risk or question recorded in the minutes
type MinutesEntry struct {
	ID         string         `json:"id"`
	Section    MinutesSection `json:"-"`
	Text       string         `json:"text"`
	Severity   string         `json:"severity,omitempty"`
	Owner      *Owner         `json:"owner,omitempty"`
	Evidence   []Evidence     `json:"evidence"`
	RecordedBy string         `json:"recorded_by"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// MinutesContent is the structured body of a meeting's minutes
type MinutesContent struct {
	Decisions     []MinutesEntry `json:"decisions"`
	Risks         []MinutesEntry `json:"risks"`
	OpenQuestions []MinutesEntry `json:"open_questions"`
}

// Append adds the entry to its section
func (c *MinutesContent) Append(entry MinutesEntry) {
	switch entry.Section {
	case MinutesSectionDecisions:
		c.Decisions = append(c.Decisions, entry)
	case MinutesSectionRisks:
		c.Risks = append(c.Risks, entry)
	case MinutesSectionOpenQuestions:
		c.OpenQuestions = append(c.OpenQuestions, entry)
	}
}

// Minutes is the per-meeting minutes document
type Minutes struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID      `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`
	Content   MinutesContent `json:"content" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Minutes) TableName() string {
	return "minutes"
}

// NewMinutes creates an empty minutes document
func NewMinutes(meetingID uuid.UUID) *Minutes {
	now := time.Now()
	return &Minutes{
		ID:        uuid.New(),
		MeetingID: meetingID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
