package auth

import (
	"context"

	"github.com/labstack/echo/v4"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	IdentityID string
	Role       Role
}

// SessionResolver looks up the principal behind a session cookie value.
// Unknown, expired and tampered tokens all report ok=false.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (Principal, bool)
}

// LoadSession resolves the session cookie, if any, and attaches the
// principal to the request context. It never rejects a request; anonymous
// pages run behind it alone.
func LoadSession(resolver SessionResolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			p, ok := resolver.Resolve(c.Request().Context(), cookie.Value)
			if !ok {
				return next(c)
			}

			ctx := WithPrincipal(c.Request().Context(), p)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the request's principal, if a session resolved.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func IdentityIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.IdentityID
}
