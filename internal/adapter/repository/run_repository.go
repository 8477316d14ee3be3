package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new copilot run repository
func NewRunRepository(db *gorm.DB) repositories.RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *entities.CopilotRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) Update(ctx context.Context, run *entities.CopilotRun) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	return r.db.WithContext(ctx).
		Model(&entities.CopilotRun{}).
		Where("id = ?", run.ID).
		Save(run).Error
}

// FindByID retrieves a run by ID
func (r *runRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.CopilotRun, error) {
	var run entities.CopilotRun
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// FindLatest retrieves the latest run of a meeting
func (r *runRepository) FindLatest(ctx context.Context, meetingID uuid.UUID) (*entities.CopilotRun, error) {
	var run entities.CopilotRun
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("started_at DESC").
		First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// List retrieves runs of a meeting, newest first
func (r *runRepository) List(ctx context.Context, meetingID uuid.UUID, limit int) ([]*entities.CopilotRun, error) {
	if limit == 0 {
		limit = 50
	}
	var runs []*entities.CopilotRun
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// ListStale retrieves runs stuck in started status
func (r *runRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*entities.CopilotRun, error) {
	var runs []*entities.CopilotRun
	if err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", entities.RunStatusStarted, cutoff).
		Order("started_at ASC").
		Limit(100).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteFinishedBefore removes old successful and failed runs
func (r *runRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND started_at < ?", []entities.RunStatus{entities.RunStatusSuccess, entities.RunStatusFailed}, cutoff).
		Delete(&entities.CopilotRun{})
	return result.RowsAffected, result.Error
}
