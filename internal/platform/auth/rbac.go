package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/ehr/portal/internal/platform/web"
)

// RequireSession rejects requests without a resolved session unless skipper
// returns true. Failures redirect to the landing page.
func RequireSession(skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}
			if _, ok := PrincipalFromContext(c.Request().Context()); !ok {
				return web.Unauthorized(c)
			}
			return next(c)
		}
	}
}

// RequireRole rejects requests whose principal does not hold role. It also
// rejects requests with no session at all, so it is safe to mount without
// RequireSession in front of it. The failure is the same either way.
func RequireRole(role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok || p.Role != role {
				return web.Unauthorized(c)
			}
			return next(c)
		}
	}
}
