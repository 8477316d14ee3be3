package presenter

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-copilot/internal/adapter/dto/copilot"
	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	copilotUsecase "github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
)

// ToSuggestionResponse converts a Suggestion entity to SuggestionResponse DTO
func ToSuggestionResponse(s *entities.Suggestion) *copilot.SuggestionResponse {
	if s == nil {
		return nil
	}

	segmentIDs := s.SourceSegmentIDs
	if segmentIDs == nil {
		segmentIDs = []string{}
	}

	return &copilot.SuggestionResponse{
		ID:                   s.ID.String(),
		MeetingID:            s.MeetingID.String(),
		RunID:                uuidString(s.RunID),
		Type:                 string(s.Type),
		Status:               string(s.Status),
		Payload:              json.RawMessage(s.Payload),
		SourceSegmentIDs:     segmentIDs,
		Confidence:           s.Confidence,
		CreatedBy:            string(s.CreatedBy),
		AcceptedActionItemID: uuidString(s.AcceptedActionItemID),
		ReviewedBy:           uuidString(s.ReviewedBy),
		ReviewedAt:           s.ReviewedAt,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

// ToSuggestionResponses converts a slice of suggestions
func ToSuggestionResponses(suggestions []*entities.Suggestion) []*copilot.SuggestionResponse {
	out := make([]*copilot.SuggestionResponse, len(suggestions))
	for i, s := range suggestions {
		out[i] = ToSuggestionResponse(s)
	}
	return out
}

// ToRunResponse converts a CopilotRun entity to RunResponse DTO
func ToRunResponse(r *entities.CopilotRun) *copilot.RunResponse {
	if r == nil {
		return nil
	}
	return &copilot.RunResponse{
		ID:               r.ID.String(),
		MeetingID:        r.MeetingID.String(),
		Mode:             string(r.Mode),
		Status:           string(r.Status),
		Provider:         r.Provider,
		Model:            r.Model,
		SegmentCount:     r.SegmentCount,
		SuggestionCount:  r.SuggestionCount,
		InputTokenCount:  r.InputTokenCount,
		OutputTokenCount: r.OutputTokenCount,
		ProcessingTimeMs: r.ProcessingTimeMs,
		ErrorMessage:     r.ErrorMessage,
		HasArchive:       r.ArchiveKey != nil,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
	}
}

// ToRunResponses converts a slice of runs
func ToRunResponses(runs []*entities.CopilotRun) []*copilot.RunResponse {
	out := make([]*copilot.RunResponse, len(runs))
	for i, r := range runs {
		out[i] = ToRunResponse(r)
	}
	return out
}

// ToStatusResponse converts the status view
func ToStatusResponse(s *copilotUsecase.Status) *copilot.StatusResponse {
	if s == nil {
		return nil
	}

	response := &copilot.StatusResponse{
		MeetingID:        s.MeetingID.String(),
		IsLive:           s.IsLive,
		SuggestionsTotal: s.Suggestions.Total,
		ByStatus:         make(map[string]int64, len(s.Suggestions.ByStatus)),
		ByType:           make(map[string]int64, len(s.Suggestions.ByType)),
		SpeakerMappings:  s.SpeakerMappings,
		LatestRun:        ToRunResponse(s.LatestRun),
	}
	for status, n := range s.Suggestions.ByStatus {
		response.ByStatus[string(status)] = n
	}
	for t, n := range s.Suggestions.ByType {
		response.ByType[string(t)] = n
	}
	return response
}

// ToEntityRefResponse converts the materialization reference
func ToEntityRefResponse(ref *entities.EntityRef) *copilot.EntityRefResponse {
	if ref == nil {
		return nil
	}
	return &copilot.EntityRefResponse{
		Kind:       string(ref.Kind),
		ID:         ref.ID,
		Label:      ref.Label,
		AssigneeID: ref.AssigneeID,
		Priority:   ref.Priority,
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
