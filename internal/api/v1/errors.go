package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	mw "github.com/edulearn/edulearn-api/internal/api/middleware"
	"github.com/edulearn/edulearn-api/internal/errors"
	"github.com/edulearn/edulearn-api/internal/logger"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // request id, also sent as X-Request-ID
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(errorText, message string, code int, correlationID string) *ErrorResponse {
	if errorText == "" {
		errorText = message
	}
	return &ErrorResponse{
		Error:         errorText,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// categoryStatus maps error categories to HTTP status codes. Categories
// missing here are answered with 500 and logged as unmapped.
var categoryStatus = map[errors.ErrorCategory]int{
	errors.CategoryValidation: http.StatusBadRequest,
	errors.CategoryNotFound:   http.StatusNotFound,
	errors.CategoryUpstream:   http.StatusInternalServerError,
	errors.CategoryInternal:   http.StatusInternalServerError,
	errors.CategoryDatabase:   http.StatusInternalServerError,
	errors.CategoryFileIO:     http.StatusInternalServerError,

	errors.CategoryConfiguration: http.StatusInternalServerError,
}

// exposedCategories keep their own message in the response body; every other
// server-side failure gets the handler's generic message.
var exposedCategories = map[errors.ErrorCategory]bool{
	errors.CategoryValidation: true,
	errors.CategoryNotFound:   true,
	errors.CategoryUpstream:   true,
}

// StatusForCategory returns the HTTP status for category and whether the
// category has an explicit mapping.
func StatusForCategory(category errors.ErrorCategory) (int, bool) {
	status, ok := categoryStatus[category]
	if !ok {
		return http.StatusInternalServerError, false
	}
	return status, true
}

// HandleError logs err with the failing operation and writes the structured
// error response. message is the generic text used for server failures;
// client errors carry the HTTP status text instead.
func (c *Controller) HandleError(ctx echo.Context, err error, operation, message string, fields ...logger.Field) error {
	category := errors.CategoryOf(err)
	status, mapped := StatusForCategory(category)

	errorText := message
	if exposedCategories[category] {
		errorText = err.Error()
		// The handler's message describes a server failure
		if status < http.StatusInternalServerError {
			message = http.StatusText(status)
		}
	}

	correlationID := mw.RequestID(ctx)
	log := GetLogger().WithContext(ctx.Request().Context())
	logFields := append([]logger.Field{
		logger.String("operation", operation),
		logger.String("category", string(category)),
		logger.Int("status", status),
		logger.String("correlation_id", correlationID),
		logger.Error(err),
	}, fields...)

	switch {
	case !mapped:
		log.Warn("unmapped error category", logFields...)
	case status >= http.StatusInternalServerError:
		log.Error("API error", logFields...)
	default:
		log.Info("API request rejected", logFields...)
	}

	label := string(category)
	if !mapped {
		label = "unmapped"
	}
	ctx.Set(mw.ErrorCategoryKey, label)

	return ctx.JSON(status, NewErrorResponse(errorText, message, status, correlationID))
}

// HTTPErrorHandler renders errors that never reached a handler (unknown
// routes, wrong methods, oversized bodies, panics) in the API error format.
func (c *Controller) HTTPErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		var enhanced *errors.EnhancedError
		if errors.As(err, &enhanced) {
			_ = c.HandleError(ctx, err, "unhandled", "Unexpected error")
			return
		}
		he = echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}

	status := he.Code
	text := http.StatusText(status)
	if msg, ok := he.Message.(string); ok && msg != "" {
		text = msg
	}
	if status == http.StatusMethodNotAllowed {
		text = "Method not allowed"
	}

	category := errors.CategoryInternal
	switch {
	case status == http.StatusNotFound || status == http.StatusMethodNotAllowed:
		category = errors.CategoryNotFound
	case status < http.StatusInternalServerError:
		category = errors.CategoryValidation
	}
	ctx.Set(mw.ErrorCategoryKey, string(category))

	correlationID := mw.RequestID(ctx)
	if status >= http.StatusInternalServerError {
		GetLogger().WithContext(ctx.Request().Context()).Error("unhandled API error",
			logger.String("path", ctx.Request().URL.Path),
			logger.String("correlation_id", correlationID),
			logger.Error(err))
	}

	body := NewErrorResponse(text, http.StatusText(status), status, correlationID)
	var writeErr error
	if ctx.Request().Method == http.MethodHead {
		writeErr = ctx.NoContent(status)
	} else {
		writeErr = ctx.JSON(status, body)
	}
	if writeErr != nil {
		GetLogger().Warn("failed to write error response", logger.Error(writeErr))
	}
}

// contentDisposition builds an attachment header that always carries a
// quoted filename, plus an RFC 5987 form for non-ASCII names.
func contentDisposition(name string) string {
	fallback := make([]rune, 0, len(name))
	ascii := true
	for _, r := range name {
		switch {
		case r == '"' || r == '\\' || r < 0x20 || r == 0x7f:
			fallback = append(fallback, '_')
		case r > 0x7e:
			ascii = false
			fallback = append(fallback, '_')
		default:
			fallback = append(fallback, r)
		}
	}
	header := fmt.Sprintf("attachment; filename=\"%s\"", string(fallback))
	if !ascii {
		header += "; filename*=UTF-8''" + url.PathEscape(name)
	}
	return header
}
