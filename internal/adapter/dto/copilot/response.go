package copilot

import (
	"encoding/json"
	"time"
)

// SuggestionResponse represents a suggestion in API responses
type SuggestionResponse struct {
	ID                   string          `json:"id"`
	MeetingID            string          `json:"meeting_id"`
	RunID                *string         `json:"run_id,omitempty"`
	Type                 string          `json:"type"`
	Status               string          `json:"status"`
	Payload              json.RawMessage `json:"payload"`
	SourceSegmentIDs     []string        `json:"source_segment_ids"`
	Confidence           *float64        `json:"confidence,omitempty"`
	CreatedBy            string          `json:"created_by"`
	AcceptedActionItemID *string         `json:"accepted_action_item_id,omitempty"`
	ReviewedBy           *string         `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// RunResponse represents a copilot run in API responses
type RunResponse struct {
	ID               string     `json:"id"`
	MeetingID        string     `json:"meeting_id"`
	Mode             string     `json:"mode"`
	Status           string     `json:"status"`
	Provider         string     `json:"provider"`
	Model            string     `json:"model"`
	SegmentCount     int        `json:"segment_count"`
	SuggestionCount  int        `json:"suggestion_count"`
	InputTokenCount  int        `json:"input_token_count"`
	OutputTokenCount int        `json:"output_token_count"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	HasArchive       bool       `json:"has_archive"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// StatusResponse summarizes a meeting's copilot activity
type StatusResponse struct {
	MeetingID        string           `json:"meeting_id"`
	IsLive           bool             `json:"is_live"`
	SuggestionsTotal int64            `json:"suggestions_total"`
	ByStatus         map[string]int64 `json:"by_status"`
	ByType           map[string]int64 `json:"by_type"`
	SpeakerMappings  int              `json:"speaker_mappings"`
	LatestRun        *RunResponse     `json:"latest_run,omitempty"`
}

// TriggerRunResponse is returned when a realtime run was queued
type TriggerRunResponse struct {
	MeetingID string `json:"meeting_id"`
	Mode      string `json:"mode"`
	Status    string `json:"status"`
}

// EntityRefResponse points at what an accepted suggestion turned into
type EntityRefResponse struct {
	Kind       string  `json:"kind"`
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	AssigneeID *string `json:"assignee_id,omitempty"`
	Priority   string  `json:"priority,omitempty"`
}

// AcceptResponse is returned by the accept endpoint
type AcceptResponse struct {
	Suggestion   *SuggestionResponse `json:"suggestion"`
	Materialized *EntityRefResponse  `json:"materialized"`
}

// ArchiveResponse is a short-lived download link for a run's archived output
type ArchiveResponse struct {
	RunID     string    `json:"run_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
