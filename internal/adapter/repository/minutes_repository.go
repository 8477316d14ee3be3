package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

type minutesRepository struct {
	db *gorm.DB
}

// NewMinutesRepository creates a new minutes repository
func NewMinutesRepository(db *gorm.DB) repositories.MinutesRepository {
	return &minutesRepository{db: db}
}

// FindOrCreateForUpdate locks the meeting's minutes row, inserting it first when absent
func (r *minutesRepository) FindOrCreateForUpdate(ctx context.Context, meetingID uuid.UUID) (*entities.Minutes, error) {
	db := r.db.WithContext(ctx)

	// Concurrent creators race on the unique meeting_id; the loser does nothing.
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meeting_id"}},
		DoNothing: true,
	}).Create(entities.NewMinutes(meetingID)).Error; err != nil {
		return nil, err
	}

	var minutes entities.Minutes
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("meeting_id = ?", meetingID).
		First(&minutes).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &minutes, nil
}

func (r *minutesRepository) Save(ctx context.Context, minutes *entities.Minutes) error {
	if minutes == nil {
		return errors.New("minutes cannot be nil")
	}
	return r.db.WithContext(ctx).Save(minutes).Error
}

func (r *minutesRepository) CreateActionItem(ctx context.Context, item *entities.ActionItem) error {
	if item == nil {
		return errors.New("action item cannot be nil")
	}
	return r.db.WithContext(ctx).Create(item).Error
}
