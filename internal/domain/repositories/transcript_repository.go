package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
)

// TranscriptRepository reads finalized transcript segments
type TranscriptRepository interface {
	// ListRecentFinal returns up to limit of the latest final segments, in chronological order
	ListRecentFinal(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.TranscriptSegment, error)

	// ListFinal returns every final segment of the meeting ordered by start time
	ListFinal(ctx context.Context, meetingID uuid.UUID) ([]*entities.TranscriptSegment, error)
}
