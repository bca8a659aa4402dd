// Package web renders portal pages and translates failures into redirects.
package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/platform/apperr"
)

// StatusHeader carries the machine-readable outcome of a redirect.
const StatusHeader = "X-Portal-Status"

const (
	StatusUsernameTaken      = "username_taken"
	StatusInvalidCredentials = "invalid_credentials"
	StatusUnauthorized       = "unauthorized"
	StatusInvalidInput       = "invalid_input"
	StatusNotFound           = "not_found"
	StatusConflict           = "conflict"
	StatusUnavailable        = "unavailable"
)

const (
	msgUnauthorized = "Please log in with an account that can access this page"
	msgUnavailable  = "Something went wrong, please try again"
)

// Render writes a typed page document.
func Render(c echo.Context, page interface{}) error {
	return c.JSON(http.StatusOK, page)
}

// Redirect sends a 303 to path. A non-empty message is appended as the
// `message` query parameter and status is echoed in StatusHeader.
func Redirect(c echo.Context, path, status, message string) error {
	if status != "" {
		c.Response().Header().Set(StatusHeader, status)
	}
	if message != "" {
		u, err := url.Parse(path)
		if err == nil {
			q := u.Query()
			q.Set("message", message)
			u.RawQuery = q.Encode()
			path = u.String()
		}
	}
	return c.Redirect(http.StatusSeeOther, path)
}

// Unauthorized redirects to the landing page. Every gate and ownership
// failure goes through here so they are indistinguishable to the client.
func Unauthorized(c echo.Context) error {
	return Redirect(c, "/", StatusUnauthorized, msgUnauthorized)
}

// Fail classifies err and redirects back to path. Authorization failures
// always land on "/". Unclassified errors are logged and reported generically.
func Fail(c echo.Context, logger zerolog.Logger, path string, err error) error {
	if errors.Is(err, apperr.ErrAuth) {
		logger.Warn().Err(err).Str("path", c.Request().URL.Path).Msg("access denied")
		return Unauthorized(c)
	}

	if e, ok := apperr.As(err); ok {
		return Redirect(c, path, statusFor(e), e.Message)
	}

	logger.Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Msg("request failed")
	return Redirect(c, path, StatusUnavailable, msgUnavailable)
}

func statusFor(e *apperr.Error) string {
	if e.Code != "" {
		return e.Code
	}
	switch {
	case errors.Is(e.Kind, apperr.ErrValidation):
		return StatusInvalidInput
	case errors.Is(e.Kind, apperr.ErrNotFound):
		return StatusNotFound
	case errors.Is(e.Kind, apperr.ErrConflict):
		return StatusConflict
	default:
		return StatusUnavailable
	}
}
