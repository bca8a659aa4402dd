package middleware

import (
	"github.com/labstack/echo/v4"
)

// errorPage is the body written by infrastructure middleware when it
// rejects a request before a handler runs.
type errorPage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeError(c echo.Context, code int, status, message string) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(code, errorPage{Status: status, Message: message})
}
