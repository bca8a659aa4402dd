package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/web"
)

// SessionManager is the part of the session registry the login flow needs.
type SessionManager interface {
	Create(ctx context.Context, identityID string, role auth.Role) (string, error)
	Destroy(ctx context.Context, cookie string) error
	TTL() time.Duration
}

type CookieConfig struct {
	Name   string
	Secure bool
}

// FormPage is rendered for the register and login forms.
type FormPage struct {
	Page    string `json:"page"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	svc      *Service
	sessions SessionManager
	cookie   CookieConfig
	logger   zerolog.Logger
}

func NewHandler(svc *Service, sessions SessionManager, cookie CookieConfig, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, cookie: cookie, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/register", h.RegisterForm)
	g.POST("/register", h.Register)
	g.GET("/login", h.LoginForm)
	g.POST("/login", h.Login)
	g.GET("/logout", h.Logout)
}

func (h *Handler) RegisterForm(c echo.Context) error {
	return web.Render(c, FormPage{Page: "register", Message: c.QueryParam("message")})
}

func (h *Handler) Register(c echo.Context) error {
	_, err := h.svc.Register(c.Request().Context(), c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		return web.Fail(c, h.logger, "/register", err)
	}
	return web.Redirect(c, "/login", "", "")
}

func (h *Handler) LoginForm(c echo.Context) error {
	return web.Render(c, FormPage{Page: "login", Message: c.QueryParam("message")})
}

func (h *Handler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	i, err := h.svc.Authenticate(ctx, c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		return web.Fail(c, h.logger, "/login", err)
	}

	token, err := h.sessions.Create(ctx, i.ID, i.Role)
	if err != nil {
		return web.Fail(c, h.logger, "/login", err)
	}

	c.SetCookie(h.newCookie(token, int(h.sessions.TTL().Seconds())))
	return web.Redirect(c, "/", "", "")
}

func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(h.cookie.Name); err == nil {
		if err := h.sessions.Destroy(c.Request().Context(), cookie.Value); err != nil {
			h.logger.Error().Err(err).Msg("destroy session")
		}
	}
	c.SetCookie(h.newCookie("", -1))
	return web.Redirect(c, "/", "", "")
}

func (h *Handler) newCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
