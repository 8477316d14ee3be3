package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/meeting-copilot/pkg/config"
	signedmw "github.com/johnquangdev/meeting-copilot/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	copilotHandler *Copilot
	eventsHandler  *Events
	webhookHandler *WebhookHandler
	authMW         echo.MiddlewareFunc
	metrics        http.Handler
}

// NewRouter creates a new router with all handlers. events, webhook and metrics may be nil.
func NewRouter(cfg *config.Config, copilotHandler *Copilot, eventsHandler *Events, webhookHandler *WebhookHandler, authMW echo.MiddlewareFunc, metrics http.Handler) *Router {
	return &Router{
		cfg:            cfg,
		copilotHandler: copilotHandler,
		eventsHandler:  eventsHandler,
		webhookHandler: webhookHandler,
		authMW:         authMW,
		metrics:        metrics,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	if rt.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(rt.metrics))
	}
	if !rt.cfg.IsProduction() {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupCopilotRoutes(v1)
	rt.setupInternalRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

// setupCopilotRoutes configures the authenticated review and run routes
func (rt *Router) setupCopilotRoutes(g *echo.Group) {
	meetings := g.Group("/meetings/:meeting_id/copilot", rt.authMW)
	meetings.POST("/runs", rt.copilotHandler.TriggerRun)
	meetings.GET("/runs", rt.copilotHandler.ListRuns)
	meetings.GET("/status", rt.copilotHandler.GetStatus)
	meetings.GET("/suggestions", rt.copilotHandler.ListSuggestions)
	meetings.GET("/stream", rt.copilotHandler.Stream)

	copilot := g.Group("/copilot", rt.authMW)
	copilot.GET("/runs/:run_id", rt.copilotHandler.GetRun)
	copilot.GET("/runs/:run_id/archive", rt.copilotHandler.GetRunArchive)
	copilot.POST("/suggestions/:suggestion_id/accept", rt.copilotHandler.Accept)
	copilot.POST("/suggestions/:suggestion_id/reject", rt.copilotHandler.Reject)
	copilot.PATCH("/suggestions/:suggestion_id", rt.copilotHandler.Edit)
}

// setupInternalRoutes configures the signed event hooks
func (rt *Router) setupInternalRoutes(g *echo.Group) {
	if rt.eventsHandler == nil || rt.cfg.Events.SigningSecret == "" {
		g.POST("/internal/events/*", rt.notImplemented)
		return
	}

	events := g.Group("/internal/events", signedmw.RequireSignature(rt.cfg.Events.SigningSecret))
	events.POST("/segment-finalized", rt.eventsHandler.SegmentFinalized)
	events.POST("/live-session-started", rt.eventsHandler.LiveSessionStarted)
	events.POST("/live-session-ended", rt.eventsHandler.LiveSessionEnded)
}

// setupWebhookRoutes configures third-party webhooks
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	if rt.webhookHandler == nil {
		g.POST("/webhooks/livekit", rt.notImplemented)
		return
	}
	g.POST("/webhooks/livekit", rt.webhookHandler.HandleLiveKitWebhook)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not configured",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Set the required credentials to enable it",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
