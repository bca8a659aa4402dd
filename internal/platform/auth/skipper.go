package auth

import (
	"github.com/labstack/echo/v4"
)

// anonymousPaths are reachable without a session. The landing page is
// listed because it renders either the login prompt or the dashboard.
var anonymousPaths = map[string]bool{
	"/":          true,
	"/register":  true,
	"/login":     true,
	"/health":    true,
	"/health/db": true,
}

// AnonymousSkipper returns true for requests whose route needs no session.
func AnonymousSkipper(c echo.Context) bool {
	return IsAnonymousPath(c.Path())
}

// IsAnonymousPath reports whether path is served without a session.
func IsAnonymousPath(path string) bool {
	return anonymousPaths[path]
}
