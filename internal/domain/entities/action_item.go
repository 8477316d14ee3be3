package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActionItemStatus represents the progress of a durable action item
type ActionItemStatus string

const (
	ActionItemStatusOpen ActionItemStatus = "open"
	ActionItemStatusDone ActionItemStatus = "done"
)

// ActionItem is created when an action item suggestion is accepted
type ActionItem struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID        uuid.UUID        `json:"meeting_id" gorm:"type:uuid;not null;index"`
	MinutesID        uuid.UUID        `json:"minutes_id" gorm:"type:uuid;not null;index"`
	SuggestionID     *uuid.UUID       `json:"suggestion_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	Title            string           `json:"title" gorm:"type:varchar(500);not null"`
	Description      string           `json:"description" gorm:"type:text"`
	AssigneeID       *uuid.UUID       `json:"assignee_id,omitempty" gorm:"type:uuid;index"`
	DueDate          *time.Time       `json:"due_date,omitempty" gorm:"type:date"`
	Priority         string           `json:"priority" gorm:"type:varchar(10);not null;default:'medium'"`
	Status           ActionItemStatus `json:"status" gorm:"type:varchar(20);not null;default:'open'"`
	SourceSegmentIDs []string         `json:"source_segment_ids" gorm:"type:jsonb;serializer:json"`
	CreatedBy        uuid.UUID        `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ActionItem) TableName() string {
	return "action_items"
}

// NewActionItem creates an open action item
func NewActionItem(meetingID uuid.UUID, title, description, priority string, createdBy uuid.UUID) *ActionItem {
	now := time.Now()
	return &ActionItem{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      ActionItemStatusOpen,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
