package copilot

import "encoding/json"

// TriggerRunRequest represents the request to start a copilot run
type TriggerRunRequest struct {
	Mode string `json:"mode" validate:"required,oneof=realtime_incremental post_meeting"`
}

// ListSuggestionsRequest represents the query parameters for listing suggestions
type ListSuggestionsRequest struct {
	Type   string `query:"type" validate:"omitempty,oneof=action_item decision risk question"`
	Status string `query:"status" validate:"omitempty,oneof=proposed edited accepted rejected"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
}

// ListRunsRequest represents the query parameters for run history
type ListRunsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// EditSuggestionRequest carries the reviewer's version of the payload
type EditSuggestionRequest struct {
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// SegmentFinalizedEvent is posted by the transcription subsystem
type SegmentFinalizedEvent struct {
	MeetingID string `json:"meeting_id" validate:"required,uuid"`
	SegmentID string `json:"segment_id" validate:"required"`
}

// LiveSessionEvent is posted by the meeting subsystem when a meeting goes live or ends
type LiveSessionEvent struct {
	MeetingID string `json:"meeting_id" validate:"required,uuid"`
}
