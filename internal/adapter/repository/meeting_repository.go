package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// FindByID retrieves a meeting by its ID
func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// FindByLivekitRoomName retrieves a meeting by its LiveKit room name
func (r *meetingRepository) FindByLivekitRoomName(ctx context.Context, roomName string) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("livekit_room_name = ?", roomName).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

type liveSessionRepository struct {
	db *gorm.DB
}

// NewLiveSessionRepository creates a new live session repository
func NewLiveSessionRepository(db *gorm.DB) repositories.LiveSessionRepository {
	return &liveSessionRepository{db: db}
}

func (r *liveSessionRepository) Create(ctx context.Context, session *entities.LiveSession) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *liveSessionRepository) Update(ctx context.Context, session *entities.LiveSession) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	return r.db.WithContext(ctx).Save(session).Error
}

// FindActiveByMeeting retrieves the open live session of a meeting
func (r *liveSessionRepository) FindActiveByMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.LiveSession, error) {
	var session entities.LiveSession
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND status = ?", meetingID, entities.LiveSessionStatusActive).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

type speakerRepository struct {
	db *gorm.DB
}

// NewSpeakerRepository creates a new speaker repository
func NewSpeakerRepository(db *gorm.DB) repositories.SpeakerRepository {
	return &speakerRepository{db: db}
}

func (r *speakerRepository) CountByMeeting(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Speaker{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error
	return count, err
}

// ListMappings retrieves speaker→user mappings with speaker and user loaded
func (r *speakerRepository) ListMappings(ctx context.Context, meetingID uuid.UUID) ([]*entities.SpeakerUserMap, error) {
	var mappings []*entities.SpeakerUserMap
	if err := r.db.WithContext(ctx).
		Preload("Speaker").
		Preload("User").
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&mappings).Error; err != nil {
		return nil, err
	}
	return mappings, nil
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves an active user by ID
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
