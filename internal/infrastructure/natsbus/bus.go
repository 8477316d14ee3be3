package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
)

// Subjects under the configured prefix
const (
	subjectSegmentFinalized = "transcription.segment_finalized"
	subjectSessionEnded     = "session.ended"
	subjectCopilot          = "copilot"
)

// SegmentFinalized is the message of the transcription subsystem
type SegmentFinalized struct {
	MeetingID uuid.UUID `json:"meeting_id"`
	SegmentID string    `json:"segment_id"`
}

// SessionEnded is the message of the meeting subsystem
type SessionEnded struct {
	MeetingID uuid.UUID `json:"meeting_id"`
}

// EventHandler receives the signals consumed from the bus
type EventHandler interface {
	OnSegmentFinalized(ctx context.Context, meetingID uuid.UUID, segmentID string) error
	OnLiveSessionEnded(ctx context.Context, meetingID uuid.UUID) error
}

// Bus publishes copilot events and consumes pipeline triggers over NATS
type Bus struct {
	nc     *nats.Conn
	prefix string
	subs   []*nats.Subscription
	logger *zap.Logger
}

// Connect dials NATS, reconnecting forever in the background
func Connect(url, prefix string, logger *zap.Logger) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Name("meeting-copilot"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if logger != nil {
				logger.Warn("⚠️ NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if logger != nil {
				logger.Info("🔁 NATS reconnected")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Bus{nc: nc, prefix: strings.TrimSuffix(prefix, "."), logger: logger}, nil
}

func (b *Bus) subject(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "." + name
}

// CopilotSubject is where an event of the given type is published
func (b *Bus) CopilotSubject(eventType string) string {
	return b.subject(subjectCopilot + "." + strings.TrimPrefix(eventType, "copilot_"))
}

// Publish sends a copilot event
func (b *Bus) Publish(_ context.Context, event copilot.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.nc.Publish(b.CopilotSubject(event.Type), data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Subscribe routes trigger messages to handler. Malformed messages are logged and dropped.
func (b *Bus) Subscribe(ctx context.Context, handler EventHandler) error {
	segSub, err := b.nc.Subscribe(b.subject(subjectSegmentFinalized), func(msg *nats.Msg) {
		var m SegmentFinalized
		if err := json.Unmarshal(msg.Data, &m); err != nil || m.MeetingID == uuid.Nil {
			b.dropMalformed(msg, err)
			return
		}
		if err := handler.OnSegmentFinalized(ctx, m.MeetingID, m.SegmentID); err != nil {
			b.logHandlerError(msg, m.MeetingID, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subjectSegmentFinalized, err)
	}
	b.subs = append(b.subs, segSub)

	endSub, err := b.nc.Subscribe(b.subject(subjectSessionEnded), func(msg *nats.Msg) {
		var m SessionEnded
		if err := json.Unmarshal(msg.Data, &m); err != nil || m.MeetingID == uuid.Nil {
			b.dropMalformed(msg, err)
			return
		}
		if err := handler.OnLiveSessionEnded(ctx, m.MeetingID); err != nil {
			b.logHandlerError(msg, m.MeetingID, err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subjectSessionEnded, err)
	}
	b.subs = append(b.subs, endSub)

	if b.logger != nil {
		b.logger.Info("📡 Subscribed to NATS triggers",
			zap.String("segment_subject", segSub.Subject),
			zap.String("session_subject", endSub.Subject),
		)
	}
	return nil
}

func (b *Bus) dropMalformed(msg *nats.Msg, err error) {
	if b.logger != nil {
		b.logger.Warn("⚠️ Malformed NATS message, skipping",
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}

func (b *Bus) logHandlerError(msg *nats.Msg, meetingID uuid.UUID, err error) {
	if b.logger != nil {
		b.logger.Error("❌ Failed to handle NATS message",
			zap.String("subject", msg.Subject),
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
	}
}

// Close unsubscribes and drains the connection
func (b *Bus) Close() {
	for _, s := range b.subs {
		_ = s.Unsubscribe()
	}
	_ = b.nc.Drain()
}
