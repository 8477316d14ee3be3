package entities

import (
	"time"

	"github.com/google/uuid"
)

// RunMode tells which transcript window a run analyzed
type RunMode string

const (
	RunModeRealtime    RunMode = "realtime_incremental" // Most recent window while the meeting is live
	RunModePostMeeting RunMode = "post_meeting"         // Whole transcript after the live session ended
)

func (m RunMode) IsValid() bool {
	return m == RunModeRealtime || m == RunModePostMeeting
}

// RunStatus represents the status of a copilot run
type RunStatus string

const (
	RunStatusStarted RunStatus = "started"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
	RunStatusTimeout RunStatus = "timeout" // Abandoned mid-attempt and swept later
)

// CopilotRun is the audit record of one orchestration attempt
type CopilotRun struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID        uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Mode             RunMode   `json:"mode" gorm:"type:varchar(30);not null"`
	Provider         string    `json:"provider" gorm:"type:varchar(50);not null"`
	Model            string    `json:"model" gorm:"type:varchar(100);not null"`
	Status           RunStatus `json:"status" gorm:"type:varchar(20);not null;default:'started';index"`
	SegmentCount     int       `json:"segment_count" gorm:"type:integer;default:0"`
	SuggestionCount  int       `json:"suggestion_count" gorm:"type:integer;default:0"`
	InputTokenCount  int       `json:"input_token_count" gorm:"type:integer;default:0"`
	OutputTokenCount int       `json:"output_token_count" gorm:"type:integer;default:0"`
	ProcessingTimeMs int64     `json:"processing_time_ms" gorm:"type:bigint;default:0"`
	ErrorMessage     *string   `json:"error_message,omitempty" gorm:"type:text"`
	ArchiveKey       *string   `json:"archive_key,omitempty" gorm:"type:varchar(500)"`

	Metadata RunMetadata `json:"metadata" gorm:"type:jsonb;serializer:json"`

	StartedAt  time.Time  `json:"started_at" gorm:"type:timestamp;not null;index"`
	FinishedAt *time.Time `json:"finished_at,omitempty" gorm:"type:timestamp"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// RunMetadata is what the model gateway reports about a call
type RunMetadata struct {
	Model            string     `json:"model,omitempty"`
	Provider         string     `json:"provider,omitempty"`
	ProcessingTimeMs int64      `json:"processing_time_ms,omitempty"`
	InputSegments    int        `json:"input_segments,omitempty"`
	Language         Language   `json:"language,omitempty"`
	Timestamp        time.Time  `json:"timestamp,omitempty"`
	Attempts         int        `json:"attempts,omitempty"`
	Usage            TokenUsage `json:"usage"`
}

// TokenUsage is the token accounting returned by the reasoning service
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TableName specifies the table name for GORM
func (CopilotRun) TableName() string {
	return "copilot_runs"
}

// NewCopilotRun creates a run in started status
func NewCopilotRun(meetingID uuid.UUID, mode RunMode, provider, model string, segmentCount int) *CopilotRun {
	now := time.Now()
	return &CopilotRun{
		ID:           uuid.New(),
		MeetingID:    meetingID,
		Mode:         mode,
		Provider:     provider,
		Model:        model,
		Status:       RunStatusStarted,
		SegmentCount: segmentCount,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsFinished reports whether the run already has a terminal status
func (r *CopilotRun) IsFinished() bool {
	return r.Status != RunStatusStarted
}

// MarkSuccess finalizes the run with its suggestion count and gateway telemetry
func (r *CopilotRun) MarkSuccess(suggestionCount int, meta RunMetadata) error {
	if err := r.finish(RunStatusSuccess); err != nil {
		return err
	}
	r.SuggestionCount = suggestionCount
	r.Metadata = meta
	r.InputTokenCount = meta.Usage.PromptTokens
	r.OutputTokenCount = meta.Usage.CompletionTokens
	r.ProcessingTimeMs = meta.ProcessingTimeMs
	if meta.Model != "" {
		r.Model = meta.Model
	}
	return nil
}

// MarkFailed finalizes the run with the error message
func (r *CopilotRun) MarkFailed(errMsg string) error {
	if err := r.finish(RunStatusFailed); err != nil {
		return err
	}
	r.ErrorMessage = &errMsg
	r.ProcessingTimeMs = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	return nil
}

// MarkTimedOut finalizes a run that never reported back
func (r *CopilotRun) MarkTimedOut(errMsg string) error {
	if err := r.finish(RunStatusTimeout); err != nil {
		return err
	}
	r.ErrorMessage = &errMsg
	return nil
}

func (r *CopilotRun) finish(status RunStatus) error {
	if r.IsFinished() {
		return ErrRunAlreadyFinished
	}
	now := time.Now()
	r.Status = status
	r.FinishedAt = &now
	r.UpdatedAt = now
	return nil
}
