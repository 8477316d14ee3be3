package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

type suggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *gorm.DB) repositories.SuggestionRepository {
	return &suggestionRepository{db: db}
}

func (r *suggestionRepository) Create(ctx context.Context, s *entities.Suggestion) error {
	if s == nil {
		return errors.New("suggestion cannot be nil")
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *suggestionRepository) Update(ctx context.Context, s *entities.Suggestion) error {
	if s == nil {
		return errors.New("suggestion cannot be nil")
	}
	return r.db.WithContext(ctx).Save(s).Error
}

// FindByID retrieves a suggestion by ID
func (r *suggestionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Suggestion, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate retrieves a suggestion with SELECT ... FOR UPDATE
func (r *suggestionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Suggestion, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *suggestionRepository) first(db *gorm.DB, id uuid.UUID) (*entities.Suggestion, error) {
	var s entities.Suggestion
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListOpen retrieves proposed and edited suggestions of a meeting
func (r *suggestionRepository) ListOpen(ctx context.Context, meetingID uuid.UUID) ([]*entities.Suggestion, error) {
	var suggestions []*entities.Suggestion
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND status IN ?", meetingID, entities.OpenSuggestionStatuses).
		Order("created_at ASC").
		Find(&suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}

// ListAccepted retrieves accepted suggestions of a meeting
func (r *suggestionRepository) ListAccepted(ctx context.Context, meetingID uuid.UUID) ([]*entities.Suggestion, error) {
	var suggestions []*entities.Suggestion
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND status = ?", meetingID, entities.SuggestionStatusAccepted).
		Order("created_at ASC").
		Find(&suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}

// List retrieves suggestions with optional type/status filters
func (r *suggestionRepository) List(ctx context.Context, meetingID uuid.UUID, filters repositories.SuggestionFilters) ([]*entities.Suggestion, error) {
	query := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var suggestions []*entities.Suggestion
	if err := query.Order("created_at DESC").Find(&suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}

type suggestionCountRow struct {
	Type   entities.SuggestionType
	Status entities.SuggestionStatus
	Count  int64
}

// Count aggregates suggestions by status and type
func (r *suggestionRepository) Count(ctx context.Context, meetingID uuid.UUID) (*repositories.SuggestionCounts, error) {
	var rows []suggestionCountRow
	if err := r.db.WithContext(ctx).
		Model(&entities.Suggestion{}).
		Select("type, status, COUNT(*) AS count").
		Where("meeting_id = ?", meetingID).
		Group("type, status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := &repositories.SuggestionCounts{
		ByStatus: make(map[entities.SuggestionStatus]int64),
		ByType:   make(map[entities.SuggestionType]int64),
	}
	for _, row := range rows {
		counts.ByStatus[row.Status] += row.Count
		counts.ByType[row.Type] += row.Count
		counts.Total += row.Count
	}
	return counts, nil
}

// DeleteRejectedBefore removes old rejected suggestions
func (r *suggestionRepository) DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", entities.SuggestionStatusRejected, cutoff).
		Delete(&entities.Suggestion{})
	return result.RowsAffected, result.Error
}
