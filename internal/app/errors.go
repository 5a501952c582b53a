package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stolasapp/journal/internal/app/component"
)

const internalErrorMessage = "Something went wrong. Please try again later."

// handleError satisfies [echo.HTTPErrorHandler]. The add and edit endpoints,
// and any client asking for JSON, receive {"message": ...}; everything else
// gets an HTML error page. Server errors are logged and replaced by a generic
// message.
func (h handler) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := internalErrorMessage
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			message = msg
		} else if httpErr.Message != nil {
			message = fmt.Sprint(httpErr.Message)
		}
	}

	attrs := []slog.Attr{
		slog.Int("status", status),
		slog.String("method", c.Request().Method),
		slog.String("uri", c.Request().RequestURI),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		message = internalErrorMessage
		h.logger.LogAttrs(c.Request().Context(), slog.LevelError, "request failed", attrs...)
	} else {
		h.logger.LogAttrs(c.Request().Context(), slog.LevelDebug, "request rejected", attrs...)
	}

	var writeErr error
	switch {
	case c.Request().Method == http.MethodHead:
		writeErr = c.NoContent(status)
	case wantsJSON(c):
		writeErr = c.JSON(status, map[string]string{"message": message})
	default:
		writeErr = render(c, status, component.Error(h.page(c, false), status, message))
	}
	if writeErr != nil {
		h.logger.ErrorContext(c.Request().Context(), "failed to write error response", slog.Any("error", writeErr))
	}
}

func wantsJSON(c echo.Context) bool {
	switch c.Path() {
	case component.PathAdd, component.PathEdit:
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
