package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-copilot/errors"
	"github.com/johnquangdev/meeting-copilot/internal/adapter/dto/copilot"
	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/internal/domain/repositories"
	authmw "github.com/johnquangdev/meeting-copilot/internal/infrastructure/http/middleware"
	ucerr "github.com/johnquangdev/meeting-copilot/internal/usecase/errors"
	"github.com/johnquangdev/meeting-copilot/pkg/validator"
)

// Path parameters
const (
	paramMeetingID    = "meeting_id"
	paramSuggestionID = "suggestion_id"
	paramRunID        = "run_id"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized 200 response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return HandleStatus(logger, c, http.StatusOK, data)
}

// HandleStatus writes a standardized success response with the given status
func HandleStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    status,
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger.
// Use case errors are translated to AppError first.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)
	appErr := toAppError(c, err)

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	// internal causes stay in the logs
	if appErr.Raw != nil && appErr.HTTPCode < http.StatusInternalServerError {
		body.Info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, body)
}

func toAppError(c echo.Context, err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var perr *ucerr.PipelineError
	switch {
	case stdErrors.Is(err, ucerr.ErrMeetingNotFound):
		return errors.ErrMeetingNotFound(c.Param(paramMeetingID))
	case stdErrors.Is(err, ucerr.ErrSuggestionNotFound):
		return errors.ErrSuggestionNotFound(c.Param(paramSuggestionID))
	case stdErrors.Is(err, ucerr.ErrNotFound):
		return errors.ErrNotFound("Resource")
	case stdErrors.Is(err, ucerr.ErrSuggestionClosed):
		return errors.ErrSuggestionInvalidState(c.Param(paramSuggestionID))
	case stdErrors.Is(err, ucerr.ErrConflict):
		return errors.ErrConflict(err.Error())
	case stdErrors.Is(err, ucerr.ErrRunInProgress):
		return errors.ErrCopilotRunInProgress(c.Param(paramMeetingID))
	case stdErrors.Is(err, ucerr.ErrUnsupportedLanguage):
		return errors.ErrCopilotUnsupportedLanguage(err.Error())
	case stdErrors.Is(err, ucerr.ErrInvalidInput):
		return errors.ErrInvalidArgument("Invalid request").WithRaw(err)
	case stdErrors.Is(err, ucerr.ErrUnauthorized):
		return errors.ErrUnauthenticated()
	case stdErrors.As(err, &perr):
		return errors.ErrCopilotRunFailed(err)
	}
	return errors.ErrInternal(err)
}

// bind decodes and validates a request DTO
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload()
	}
	if err := c.Validate(req); err != nil {
		appErr := errors.ErrInvalidArgument("Validation failed")
		for field, tag := range validator.FieldErrors(err) {
			appErr = appErr.WithDetail(field, tag)
		}
		return appErr
	}
	return nil
}

// paramUUID parses a UUID path parameter
func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("Invalid " + name).WithDetail(name, c.Param(name))
	}
	return id, nil
}

// actorID returns the authenticated user
func actorID(c echo.Context) (uuid.UUID, error) {
	id, ok := authmw.UserID(c)
	if !ok || id == uuid.Nil {
		return uuid.Nil, errors.ErrUnauthenticated()
	}
	return id, nil
}

// buildSuggestionFilters converts ListSuggestionsRequest to repository filters
func buildSuggestionFilters(req *copilot.ListSuggestionsRequest) repositories.SuggestionFilters {
	filters := repositories.SuggestionFilters{
		Limit: req.Limit,
	}

	if req.Type != "" {
		t := entities.SuggestionType(req.Type)
		filters.Type = &t
	}

	if req.Status != "" {
		status := entities.SuggestionStatus(req.Status)
		filters.Status = &status
	}

	return filters
}
