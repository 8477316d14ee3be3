package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SuggestionType is the kind of item the copilot extracted
type SuggestionType string

const (
	SuggestionTypeActionItem SuggestionType = "action_item"
	SuggestionTypeDecision   SuggestionType = "decision"
	SuggestionTypeRisk       SuggestionType = "risk"
	SuggestionTypeQuestion   SuggestionType = "question"
)

// SuggestionTypes is the processing order used everywhere: action items, decisions, risks, questions
var SuggestionTypes = []SuggestionType{
	SuggestionTypeActionItem,
	SuggestionTypeDecision,
	SuggestionTypeRisk,
	SuggestionTypeQuestion,
}

func (t SuggestionType) IsValid() bool {
	switch t {
	case SuggestionTypeActionItem, SuggestionTypeDecision, SuggestionTypeRisk, SuggestionTypeQuestion:
		return true
	}
	return false
}

// SuggestionStatus represents where a suggestion is in its review lifecycle
type SuggestionStatus string

const (
	SuggestionStatusProposed SuggestionStatus = "proposed" // Created or refreshed by a run
	SuggestionStatusEdited   SuggestionStatus = "edited"   // Payload changed by a reviewer, still open to merges
	SuggestionStatusAccepted SuggestionStatus = "accepted" // Materialized, immutable except for the link
	SuggestionStatusRejected SuggestionStatus = "rejected" // Terminal
)

func (s SuggestionStatus) IsValid() bool {
	switch s {
	case SuggestionStatusProposed, SuggestionStatusEdited, SuggestionStatusAccepted, SuggestionStatusRejected:
		return true
	}
	return false
}

// OpenSuggestionStatuses are the statuses merges may still touch
var OpenSuggestionStatuses = []SuggestionStatus{SuggestionStatusProposed, SuggestionStatusEdited}

// SuggestionOrigin records who created a suggestion
type SuggestionOrigin string

const (
	SuggestionOriginAI   SuggestionOrigin = "ai"
	SuggestionOriginUser SuggestionOrigin = "user"
)

// Suggestion is a reviewable item proposed by the copilot
type Suggestion struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID        uuid.UUID        `json:"meeting_id" gorm:"type:uuid;not null;index:idx_suggestions_meeting_status"`
	RunID            *uuid.UUID       `json:"run_id,omitempty" gorm:"type:uuid;index"`
	LastRunID        *uuid.UUID       `json:"last_run_id,omitempty" gorm:"type:uuid"`
	Type             SuggestionType   `json:"type" gorm:"type:varchar(20);not null;index"`
	Status           SuggestionStatus `json:"status" gorm:"type:varchar(20);not null;default:'proposed';index:idx_suggestions_meeting_status"`
	Payload          datatypes.JSON   `json:"payload" gorm:"type:jsonb;not null"`
	DedupeKey        string           `json:"dedupe_key" gorm:"type:varchar(255);not null;index"`
	SourceSegmentIDs []string         `json:"source_segment_ids" gorm:"type:jsonb;serializer:json"`
	Confidence       *float64         `json:"confidence,omitempty"`
	CreatedBy        SuggestionOrigin `json:"created_by" gorm:"type:varchar(10);not null;default:'ai'"`

	// Review
	AcceptedActionItemID *uuid.UUID `json:"accepted_action_item_id,omitempty" gorm:"type:uuid"`
	Materialized         *EntityRef `json:"materialized,omitempty" gorm:"type:jsonb;serializer:json"`
	ReviewedBy           *uuid.UUID `json:"reviewed_by,omitempty" gorm:"type:uuid"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty" gorm:"type:timestamp"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Suggestion) TableName() string {
	return "copilot_suggestions"
}

// NewSuggestion creates a proposed AI suggestion from a validated payload
func NewSuggestion(meetingID uuid.UUID, payload Payload, dedupeKey string, confidence float64, runID *uuid.UUID) (*Suggestion, error) {
	now := time.Now()
	s := &Suggestion{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		RunID:      runID,
		LastRunID:  runID,
		Type:       payload.Type(),
		Status:     SuggestionStatusProposed,
		DedupeKey:  dedupeKey,
		Confidence: &confidence,
		CreatedBy:  SuggestionOriginAI,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.SetPayload(payload); err != nil {
		return nil, err
	}
	return s, nil
}

// DecodePayload returns the typed payload variant
func (s *Suggestion) DecodePayload() (Payload, error) {
	return DecodePayload(s.Type, s.Payload)
}

// SetPayload stores the payload and refreshes the cited segment ids
func (s *Suggestion) SetPayload(p Payload) error {
	if p.Type() != s.Type {
		return fmt.Errorf("%w: %s payload on %s suggestion", ErrInvalidPayload, p.Type(), s.Type)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	s.Payload = datatypes.JSON(raw)
	s.SourceSegmentIDs = SegmentIDs(p.EvidenceList())
	return nil
}

// IsOpen reports whether the suggestion still accepts merges and edits
func (s *Suggestion) IsOpen() bool {
	return s.Status == SuggestionStatusProposed || s.Status == SuggestionStatusEdited
}

// MarkAccepted records the materialized entity and closes the suggestion
func (s *Suggestion) MarkAccepted(ref *EntityRef, actor uuid.UUID, at time.Time) error {
	if !s.IsOpen() {
		return ErrSuggestionClosed
	}
	s.Status = SuggestionStatusAccepted
	s.Materialized = ref
	if ref != nil && ref.Kind == EntityKindActionItem {
		if id, err := uuid.Parse(ref.ID); err == nil {
			s.AcceptedActionItemID = &id
		}
	}
	s.ReviewedBy = &actor
	s.ReviewedAt = &at
	s.UpdatedAt = at
	return nil
}

// MarkRejected closes the suggestion without materializing anything
func (s *Suggestion) MarkRejected(actor uuid.UUID, at time.Time) error {
	if !s.IsOpen() {
		return ErrSuggestionClosed
	}
	s.Status = SuggestionStatusRejected
	s.ReviewedBy = &actor
	s.ReviewedAt = &at
	s.UpdatedAt = at
	return nil
}

// ApplyEdit replaces the payload with a reviewer's version. Evidence is kept
// from the current payload when the edit carries none; evidence it does carry
// must be valid citations.
func (s *Suggestion) ApplyEdit(edited Payload, actor uuid.UUID, at time.Time) error {
	if !s.IsOpen() {
		return ErrSuggestionClosed
	}
	for i, ev := range edited.EvidenceList() {
		if !ev.Valid() {
			return fmt.Errorf("%w: evidence %d needs a segment_id, start_ms < end_ms and a quote", ErrInvalidPayload, i)
		}
	}
	if len(edited.EvidenceList()) == 0 {
		current, err := s.DecodePayload()
		if err != nil {
			return err
		}
		edited.SetEvidence(current.EvidenceList())
	}
	if err := s.SetPayload(edited); err != nil {
		return err
	}
	s.Status = SuggestionStatusEdited
	s.ReviewedBy = &actor
	s.ReviewedAt = &at
	s.UpdatedAt = at
	return nil
}
