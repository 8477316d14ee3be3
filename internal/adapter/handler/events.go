package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/internal/adapter/dto/copilot"
	copilotUsecase "github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
)

// Events receives signed pipeline signals from the transcription and meeting subsystems
type Events struct {
	svc    copilotUsecase.Service
	logger *zap.Logger
}

// NewEventsHandler creates a new internal events handler
func NewEventsHandler(svc copilotUsecase.Service, logger *zap.Logger) *Events {
	return &Events{svc: svc, logger: logger}
}

// SegmentFinalized handles POST /internal/events/segment-finalized
// @Summary      Segment finalized
// @Description  Signed hook from transcription. May queue a realtime run while the meeting is live.
// @Tags         Internal
// @Accept       json
// @Produce      json
// @Param        X-Signature  header    string                         true  "Hex HMAC-SHA256 of the body"
// @Param        request      body      copilot.SegmentFinalizedEvent  true  "Event"
// @Success      202          {object}  map[string]interface{}
// @Failure      401          {object}  map[string]interface{}  "Invalid signature"
// @Failure      429          {object}  map[string]interface{}  "Copilot queue full"
// @Router       /internal/events/segment-finalized [post]
func (h *Events) SegmentFinalized(c echo.Context) error {
	var req copilot.SegmentFinalizedEvent
	if err := bind(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID := uuid.MustParse(req.MeetingID)

	if err := h.svc.OnSegmentFinalized(c.Request().Context(), meetingID, req.SegmentID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleStatus(h.logger, c, http.StatusAccepted, map[string]interface{}{
		"meeting_id": meetingID.String(),
		"status":     "accepted",
	})
}

// LiveSessionStarted handles POST /internal/events/live-session-started
// @Summary      Live session started
// @Description  Signed hook from the meeting subsystem. Opens the live session record.
// @Tags         Internal
// @Accept       json
// @Produce      json
// @Param        X-Signature  header    string                         true  "Hex HMAC-SHA256 of the body"
// @Param        request      body      copilot.LiveSessionEvent  true  "Event"
// @Success      202          {object}  map[string]interface{}
// @Failure      401          {object}  map[string]interface{}  "Invalid signature"
// @Router       /internal/events/live-session-started [post]
func (h *Events) LiveSessionStarted(c echo.Context) error {
	var req copilot.LiveSessionEvent
	if err := bind(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID := uuid.MustParse(req.MeetingID)

	if err := h.svc.OnLiveSessionStarted(c.Request().Context(), meetingID, ""); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleStatus(h.logger, c, http.StatusAccepted, map[string]interface{}{
		"meeting_id": meetingID.String(),
		"status":     "live",
	})
}

// LiveSessionEnded handles POST /internal/events/live-session-ended
// @Summary      Live session ended
// @Description  Signed hook from the meeting subsystem. Closes the live session and queues the post-meeting run.
// @Tags         Internal
// @Accept       json
// @Produce      json
// @Param        X-Signature  header    string                         true  "Hex HMAC-SHA256 of the body"
// @Param        request      body      copilot.LiveSessionEvent  true  "Event"
// @Success      202          {object}  map[string]interface{}
// @Failure      401          {object}  map[string]interface{}  "Invalid signature"
// @Router       /internal/events/live-session-ended [post]
func (h *Events) LiveSessionEnded(c echo.Context) error {
	var req copilot.LiveSessionEvent
	if err := bind(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	meetingID := uuid.MustParse(req.MeetingID)

	if err := h.svc.OnLiveSessionEnded(c.Request().Context(), meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleStatus(h.logger, c, http.StatusAccepted, map[string]interface{}{
		"meeting_id": meetingID.String(),
		"status":     "post_meeting_queued",
	})
}
