package copilot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
)

// Accept materializes an open suggestion and marks it accepted, all inside one
// transaction holding the suggestion's row lock.
func (o *Orchestrator) Accept(ctx context.Context, suggestionID, actor uuid.UUID) (*entities.EntityRef, *entities.Suggestion, error) {
	var (
		ref      *entities.EntityRef
		accepted *entities.Suggestion
	)

	err := o.store.Transaction(ctx, func(tx repositories.Store) error {
		s, err := lockOpenSuggestion(ctx, tx, suggestionID)
		if err != nil {
			return err
		}

		payload, err := s.DecodePayload()
		if err != nil {
			return fmt.Errorf("failed to decode suggestion payload: %w", err)
		}

		now := time.Now()
		ref, err = payload.Materialize(ctx, &minutesSink{tx: tx}, entities.MaterializeRequest{
			Suggestion: s,
			Actor:      actor,
			At:         now,
		})
		if err != nil {
			return fmt.Errorf("failed to materialize suggestion: %w", err)
		}

		if err := s.MarkAccepted(ref, actor, now); err != nil {
			return mapEntityError(err)
		}
		if err := tx.Suggestions().Update(ctx, s); err != nil {
			return fmt.Errorf("failed to update suggestion: %w", err)
		}
		accepted = s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	o.afterReview(ctx, "accept", accepted)
	return ref, accepted, nil
}

// Reject closes an open suggestion without materializing it
func (o *Orchestrator) Reject(ctx context.Context, suggestionID, actor uuid.UUID) (*entities.Suggestion, error) {
	var rejected *entities.Suggestion

	err := o.store.Transaction(ctx, func(tx repositories.Store) error {
		s, err := lockOpenSuggestion(ctx, tx, suggestionID)
		if err != nil {
			return err
		}
		if err := s.MarkRejected(actor, time.Now()); err != nil {
			return mapEntityError(err)
		}
		if err := tx.Suggestions().Update(ctx, s); err != nil {
			return fmt.Errorf("failed to update suggestion: %w", err)
		}
		rejected = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.afterReview(ctx, "reject", rejected)
	return rejected, nil
}

// Edit replaces the payload of an open suggestion with the reviewer's version.
// The payload must decode into the suggestion's type and any evidence it carries
// must be valid citations; it is not checked against the model output schema.
func (o *Orchestrator) Edit(ctx context.Context, suggestionID, actor uuid.UUID, raw json.RawMessage) (*entities.Suggestion, error) {
	var edited *entities.Suggestion

	err := o.store.Transaction(ctx, func(tx repositories.Store) error {
		s, err := lockOpenSuggestion(ctx, tx, suggestionID)
		if err != nil {
			return err
		}

		payload, err := entities.DecodePayload(s.Type, raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ucerr.ErrInvalidInput, err)
		}
		if err := s.ApplyEdit(payload, actor, time.Now()); err != nil {
			return mapEntityError(err)
		}
		if err := tx.Suggestions().Update(ctx, s); err != nil {
			return fmt.Errorf("failed to update suggestion: %w", err)
		}
		edited = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.afterReview(ctx, "edit", edited)
	return edited, nil
}

func lockOpenSuggestion(ctx context.Context, tx repositories.Store, id uuid.UUID) (*entities.Suggestion, error) {
	s, err := tx.Suggestions().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	if s == nil {
		return nil, ucerr.ErrSuggestionNotFound
	}
	if !s.IsOpen() {
		return nil, ucerr.ErrSuggestionClosed
	}
	return s, nil
}

func mapEntityError(err error) error {
	switch {
	case errors.Is(err, entities.ErrSuggestionClosed):
		return ucerr.ErrSuggestionClosed
	case errors.Is(err, entities.ErrInvalidPayload):
		return fmt.Errorf("%w: %v", ucerr.ErrInvalidInput, err)
	}
	return err
}

func (o *Orchestrator) afterReview(ctx context.Context, action string, s *entities.Suggestion) {
	o.metrics.ObserveReview(action)

	if o.logger != nil {
		o.logger.Info("📝 Copilot suggestion reviewed",
			zap.String("action", action),
			zap.String("suggestion_id", s.ID.String()),
			zap.String("meeting_id", s.MeetingID.String()),
			zap.String("status", string(s.Status)),
		)
	}

	o.notify(ctx, newEvent(EventSuggestionStatusUpdated, s.MeetingID, SuggestionStatusUpdated{
		SuggestionID: s.ID,
		Status:       s.Status,
		MeetingID:    s.MeetingID,
	}))
}

// minutesSink writes materialized suggestions through the review transaction
type minutesSink struct {
	tx repositories.Store
}

var _ entities.MaterializationSink = (*minutesSink)(nil)

// ResolveAssignee returns nil for ids that are malformed or unknown
func (m *minutesSink) ResolveAssignee(ctx context.Context, userID string) (*uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	user, err := m.tx.Users().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return &user.ID, nil
}

func (m *minutesSink) CreateActionItem(ctx context.Context, item *entities.ActionItem) error {
	minutes, err := m.tx.Minutes().FindOrCreateForUpdate(ctx, item.MeetingID)
	if err != nil {
		return fmt.Errorf("failed to get minutes: %w", err)
	}
	item.MinutesID = minutes.ID
	return m.tx.Minutes().CreateActionItem(ctx, item)
}

func (m *minutesSink) AppendMinutesEntry(ctx context.Context, meetingID uuid.UUID, entry entities.MinutesEntry) error {
	minutes, err := m.tx.Minutes().FindOrCreateForUpdate(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("failed to get minutes: %w", err)
	}
	minutes.Content.Append(entry)
	minutes.UpdatedAt = entry.RecordedAt
	return m.tx.Minutes().Save(ctx, minutes)
}
