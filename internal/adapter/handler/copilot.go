package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/errors"
	"github.com/johnquangdev/meeting-copilot/internal/adapter/dto/copilot"
	"github.com/johnquangdev/meeting-copilot/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/infrastructure/notify"
	copilotUsecase "github.com/johnquangdev/meeting-copilot/internal/usecase/copilot"
)

const (
	archiveLinkExpiry = 15 * time.Minute
	streamPingPeriod  = 30 * time.Second
	streamWriteWait   = 10 * time.Second
	defaultRunsLimit  = 20
)

// ArchiveLinker signs download links for archived run output
type ArchiveLinker interface {
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// EventStream hands out per-client subscriptions to meeting events
type EventStream interface {
	Subscribe(meetingID, userID uuid.UUID) *notify.Subscription
	Close(id uuid.UUID)
}

// Copilot handles suggestion review and run endpoints
type Copilot struct {
	svc      copilotUsecase.Service
	archive  ArchiveLinker
	stream   EventStream
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewCopilotHandler creates a new copilot handler. archive and stream may be nil.
func NewCopilotHandler(svc copilotUsecase.Service, archive ArchiveLinker, stream EventStream, allowedOrigins []string, logger *zap.Logger) *Copilot {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Copilot{
		svc:     svc,
		archive: archive,
		stream:  stream,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		logger: logger,
	}
}

// TriggerRun handles POST /meetings/:meeting_id/copilot/runs
// @Summary      Trigger a copilot run
// @Description  Realtime runs are queued and return 202. Post-meeting runs execute inline and return the finalized run.
// @Tags         Copilot
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        meeting_id  path      string                     true  "Meeting ID (UUID)"
// @Param        request     body      copilot.TriggerRunRequest  true  "Run mode"
// @Success      200         {object}  copilot.RunResponse        "Post-meeting run finished"
// @Success      202         {object}  copilot.TriggerRunResponse "Realtime run queued"
// @Failure      400         {object}  map[string]interface{}     "Invalid request"
// @Failure      404         {object}  map[string]interface{}     "Meeting not found"
// @Failure      429         {object}  map[string]interface{}     "Run already in progress"
// @Failure      502         {object}  map[string]interface{}     "Copilot analysis failed"
// @Router       /meetings/{meeting_id}/copilot/runs [post]
func (h *Copilot) TriggerRun(c echo.Context) error {
	meetingID, err := paramUUID(c, paramMeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req copilot.TriggerRunRequest
	if err := bind(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	mode := entities.RunMode(req.Mode)
	run, err := h.svc.TriggerRun(c.Request().Context(), meetingID, mode)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if run == nil {
		return HandleStatus(h.logger, c, http.StatusAccepted, &copilot.TriggerRunResponse{
			MeetingID: meetingID.String(),
			Mode:      string(mode),
			Status:    "queued",
		})
	}
	return HandleSuccess(h.logger, c, presenter.ToRunResponse(run))
}

// GetStatus handles GET /meetings/:meeting_id/copilot/status
// @Summary      Copilot status
// @Description  Suggestion counts by status and type, latest run and live flag
// @Tags         Copilot
// @Produce      json
// @Security     BearerAuth
// @Param        meeting_id  path      string                  true  "Meeting ID (UUID)"
// @Success      200         {object}  copilot.StatusResponse
// @Failure      404         {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{meeting_id}/copilot/status [get]
func (h *Copilot) GetStatus(c echo.Context) error {
	meetingID, err := paramUUID(c, paramMeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	status, err := h.svc.GetStatus(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToStatusResponse(status))
}

// ListSuggestions handles GET /meetings/:meeting_id/copilot/suggestions
// @Summary      List suggestions
// @Description  Newest first, optionally filtered by type and status
// @Tags         Copilot
// @Produce      json
// @Security     BearerAuth
// @Param        meeting_id  path      string  true   "Meeting ID (UUID)"
// @Param        type        query     string  false  "action_item, decision, risk or question"
// @Param        status      query     string  false  "proposed, edited, accepted or rejected"
// @Param        limit       query     int     false  "Max results"
// @Success      200         {array}   copilot.SuggestionResponse
// @Failure      400         {object}  map[string]interface{}  "Invalid filter"
// @Failure      404         {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{meeting_id}/copilot/suggestions [get]
func (h *Copilot) ListSuggestions(c echo.Context) error {
	meetingID, err := paramUUID(c, paramMeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req copilot.ListSuggestionsRequest
	if err := bind(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	suggestions, err := h.svc.ListSuggestions(c.Request().Context(), meetingID, buildSuggestionFilters(&req))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSuggestionResponses(suggestions))
}

// ListRuns handles GET /meetings/:meeting_id/copilot/runs
// @Summary      Run history
// @Description  Most recent first
// @Tags         Copilot
// @Produce      json
// @Security     BearerAuth
// @Param        meeting_id  path      string  true   "Meeting ID (UUID)"
// @Param        limit       query     int     false  "Max results (default 20)"
// @Success      200         {array}   copilot.RunResponse
// @Failure      404         {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{meeting_id}/copilot/runs [get]
func (h *Copilot) ListRuns(c echo.Context) error {
	meetingID, err := paramUUID(c, paramMeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req copilot.ListRunsRequest
	if err := bind(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.Limit == 0 {
		req.Limit = defaultRunsLimit
	}

	runs, err := h.svc.ListRuns(c.Request().Context(), meetingID, req.Limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRunResponses(runs))
}

// GetRun handles GET /copilot/runs/:run_id
// @Summary      Get a copilot run
// @Tags         Copilot
// @Produce      json
// @Security     BearerAuth
// @Param        run_id  path      string  true  "Run ID (UUID)"
// @Success      200     {object}  copilot.RunResponse
// @Failure      404     {object}  map[string]interface{}  "Run not found"
// @Router       /copilot/runs/{run_id} [get]
func (h *Copilot) GetRun(c echo.Context) error {
	runID, err := paramUUID(c, paramRunID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	run, err := h.svc.GetRun(c.Request().Context(), runID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRunResponse(run))
}

// GetRunArchive handles GET /copilot/runs/:run_id/archive
// @Summary      Archived run output
// @Description  Returns a short-lived link to the sanitized model output stored for a successful run
// @Tags         Copilot
// @Produce      json
// @Security     BearerAuth
// @Param        run_id  path      string  true  "Run ID (UUID)"
// @Success      200     {object}  copilot.ArchiveResponse
// @Failure      404     {object}  map[string]interface{}  "Run or archive not found"
// @Router       /copilot/runs/{run_id}/archive [get]
func (h *Copilot) GetRunArchive(c echo.Context) error {
	runID, err := paramUUID(c, paramRunID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	run, err := h.svc.GetRun(c.Request().Context(), runID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if h.archive == nil || run.ArchiveKey == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("Run archive"))
	}

	url, err := h.archive.PresignedURL(c.Request().Context(), *run.ArchiveKey, archiveLinkExpiry)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("presign", err))
	}

	return HandleSuccess(h.logger, c, &copilot.ArchiveResponse{
		RunID:     run.ID.String(),
		URL:       url,
		ExpiresAt: time.Now().Add(archiveLinkExpiry).UTC(),
	})
}

// Accept handles POST /copilot/suggestions/:suggestion_id/accept
// @Summary      Accept a suggestion
// @Description  Materializes the suggestion into an action item or a minutes entry
// @Tags         Copilot
// @Produce      json
// @Security     BearerAuth
// @Param        suggestion_id  path      string  true  "Suggestion ID (UUID)"
// @Success      200            {object}  copilot.AcceptResponse
// @Failure      404            {object}  map[string]interface{}  "Suggestion not found"
// @Failure      409            {object}  map[string]interface{}  "Suggestion already reviewed"
// @Router       /copilot/suggestions/{suggestion_id}/accept [post]
func (h *Copilot) Accept(c echo.Context) error {
	suggestionID, actor, err := h.reviewTarget(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	ref, suggestion, err := h.svc.Accept(c.Request().Context(), suggestionID, actor)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, &copilot.AcceptResponse{
		Suggestion:   presenter.ToSuggestionResponse(suggestion),
		Materialized: presenter.ToEntityRefResponse(ref),
	})
}

// Reject handles POST /copilot/suggestions/:suggestion_id/reject
// @Summary      Reject a suggestion
// @Tags         Copilot
// @Produce      json
// @Security     BearerAuth
// @Param        suggestion_id  path      string  true  "Suggestion ID (UUID)"
// @Success      200            {object}  copilot.SuggestionResponse
// @Failure      404            {object}  map[string]interface{}  "Suggestion not found"
// @Failure      409            {object}  map[string]interface{}  "Suggestion already reviewed"
// @Router       /copilot/suggestions/{suggestion_id}/reject [post]
func (h *Copilot) Reject(c echo.Context) error {
	suggestionID, actor, err := h.reviewTarget(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	suggestion, err := h.svc.Reject(c.Request().Context(), suggestionID, actor)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSuggestionResponse(suggestion))
}

// Edit handles PATCH /copilot/suggestions/:suggestion_id
// @Summary      Edit a suggestion
// @Description  Replaces the payload. Evidence is kept when the edit omits it.
// @Tags         Copilot
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        suggestion_id  path      string                         true  "Suggestion ID (UUID)"
// @Param        request        body      copilot.EditSuggestionRequest  true  "New payload"
// @Success      200            {object}  copilot.SuggestionResponse
// @Failure      400            {object}  map[string]interface{}  "Payload does not match the suggestion type"
// @Failure      404            {object}  map[string]interface{}  "Suggestion not found"
// @Failure      409            {object}  map[string]interface{}  "Suggestion already reviewed"
// @Router       /copilot/suggestions/{suggestion_id} [patch]
func (h *Copilot) Edit(c echo.Context) error {
	suggestionID, actor, err := h.reviewTarget(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req copilot.EditSuggestionRequest
	if err := bind(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	suggestion, err := h.svc.Edit(c.Request().Context(), suggestionID, actor, req.Payload)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSuggestionResponse(suggestion))
}

// Stream handles GET /meetings/:meeting_id/copilot/stream
// @Summary      Live copilot events
// @Description  WebSocket stream of copilot_suggestions_updated and copilot_suggestion_status_updated events
// @Tags         Copilot
// @Security     BearerAuth
// @Param        meeting_id  path  string  true  "Meeting ID (UUID)"
// @Success      101
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{meeting_id}/copilot/stream [get]
func (h *Copilot) Stream(c echo.Context) error {
	meetingID, err := paramUUID(c, paramMeetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	actor, err := actorID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if h.stream == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("Event stream"))
	}

	status, err := h.svc.GetStatus(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return nil
	}
	defer conn.Close()

	sub := h.stream.Subscribe(meetingID, actor)
	defer h.stream.Close(sub.ID)

	// Reader detects the client going away; inbound messages are ignored
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(map[string]interface{}{
		"type": "copilot_status",
		"data": presenter.ToStatusResponse(status),
	}); err != nil {
		return nil
	}

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return nil

		case <-c.Request().Context().Done():
			return nil

		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				if h.logger != nil {
					h.logger.Warn("⚠️ Failed to write copilot event",
						zap.String("subscription_id", sub.ID.String()),
						zap.Error(err),
					)
				}
				return nil
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return nil
			}
		}
	}
}

func (h *Copilot) reviewTarget(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	suggestionID, err := paramUUID(c, paramSuggestionID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	actor, err := actorID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return suggestionID, actor, nil
}
