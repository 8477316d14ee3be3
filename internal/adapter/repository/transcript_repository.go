package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

type transcriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript segment repository
func NewTranscriptRepository(db *gorm.DB) repositories.TranscriptRepository {
	return &transcriptRepository{db: db}
}

// ListRecentFinal loads the latest final segments and returns them oldest first
func (r *transcriptRepository) ListRecentFinal(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.TranscriptSegment, error) {
	var segments []*entities.TranscriptSegment
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND is_final = ?", meetingID, true).
		Order("start_ms DESC").
		Limit(limit).
		Find(&segments).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments, nil
}

// ListFinal loads every final segment ordered by start time
func (r *transcriptRepository) ListFinal(ctx context.Context, meetingID uuid.UUID) ([]*entities.TranscriptSegment, error) {
	var segments []*entities.TranscriptSegment
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND is_final = ?", meetingID, true).
		Order("start_ms ASC").
		Find(&segments).Error; err != nil {
		return nil, err
	}
	return segments, nil
}
