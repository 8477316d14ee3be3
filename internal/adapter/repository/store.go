package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
)

// Store is the gorm-backed unit of work. A Store created inside Transaction
// shares the transaction's *gorm.DB with every repository it hands out.
type Store struct {
	db *gorm.DB
}

var _ repositories.Store = (*Store)(nil)

// NewStore creates a new store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Meetings() repositories.MeetingRepository { return NewMeetingRepository(s.db) }
func (s *Store) LiveSessions() repositories.LiveSessionRepository { return NewLiveSessionRepository(s.db) }
func (s *Store) Speakers() repositories.SpeakerRepository { return NewSpeakerRepository(s.db) }
func (s *Store) Users() repositories.UserRepository { return NewUserRepository(s.db) }
func (s *Store) Transcripts() repositories.TranscriptRepository { return NewTranscriptRepository(s.db) }
func (s *Store) Suggestions() repositories.SuggestionRepository { return NewSuggestionRepository(s.db) }
func (s *Store) Runs() repositories.RunRepository { return NewRunRepository(s.db) }
func (s *Store) Minutes() repositories.MinutesRepository { return NewMinutesRepository(s.db) }

// Transaction runs fn inside a database transaction
func (s *Store) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
