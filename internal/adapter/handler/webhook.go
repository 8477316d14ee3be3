package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/errors"
	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	copilotUsecase "github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
)

// MeetingLookup resolves the meeting bound to a LiveKit room
type MeetingLookup interface {
	FindByLivekitRoomName(ctx context.Context, roomName string) (*entities.Meeting, error)
}

// WebhookHandler handles LiveKit webhook events
type WebhookHandler struct {
	svc      copilotUsecase.Service
	meetings MeetingLookup
	keys     auth.KeyProvider
	logger   *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(svc copilotUsecase.Service, meetings MeetingLookup, livekitAPIKey, livekitSecret string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		svc:      svc,
		meetings: meetings,
		keys:     auth.NewSimpleKeyProvider(livekitAPIKey, livekitSecret),
		logger:   logger,
	}
}

// HandleLiveKitWebhook processes LiveKit webhook events with signature validation
// @Summary      LiveKit Webhook
// @Description  room_started opens the meeting's live session; room_finished ends it and queues the post-meeting run
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /webhooks/livekit [post]
func (h *WebhookHandler) HandleLiveKitWebhook(c echo.Context) error {
	event, err := webhook.ReceiveWebhookEvent(c.Request(), h.keys)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("⚠️ LiveKit webhook rejected", zap.Error(err))
		}
		return HandleError(h.logger, c, errors.ErrInvalidSignature())
	}

	if h.logger != nil {
		h.logger.Info("🌐 LiveKit webhook received",
			zap.String("event", event.GetEvent()),
			zap.String("event_id", event.GetId()),
			zap.String("room", event.GetRoom().GetName()),
		)
	}

	switch event.GetEvent() {
	case "room_started":
		return h.handleRoomStarted(c, event)
	case "room_finished":
		return h.handleRoomFinished(c, event)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ignored", "event": event.GetEvent()})
}

func (h *WebhookHandler) handleRoomStarted(c echo.Context, event *livekit.WebhookEvent) error {
	meeting, ok, err := h.meetingFor(c.Request().Context(), event)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ignored", "reason": "unknown room"})
	}

	if err := h.svc.OnLiveSessionStarted(c.Request().Context(), meeting.ID, event.GetRoom().GetSid()); err != nil {
		return HandleError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "meeting_id": meeting.ID.String()})
}

func (h *WebhookHandler) handleRoomFinished(c echo.Context, event *livekit.WebhookEvent) error {
	meeting, ok, err := h.meetingFor(c.Request().Context(), event)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ignored", "reason": "unknown room"})
	}

	if err := h.svc.OnLiveSessionEnded(c.Request().Context(), meeting.ID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "meeting_id": meeting.ID.String()})
}

// meetingFor returns ok=false for rooms that belong to no meeting
func (h *WebhookHandler) meetingFor(ctx context.Context, event *livekit.WebhookEvent) (*entities.Meeting, bool, error) {
	name := event.GetRoom().GetName()
	if name == "" {
		return nil, false, nil
	}
	meeting, err := h.meetings.FindByLivekitRoomName(ctx, name)
	if err != nil {
		return nil, false, errors.ErrDBQueryFailed("find meeting by room", err)
	}
	if meeting == nil {
		if h.logger != nil {
			h.logger.Warn("⚠️ Webhook for unknown room",
				zap.String("room", name),
				zap.String("event", event.GetEvent()),
			)
		}
		return nil, false, nil
	}
	return meeting, true, nil
}
