package chat

import (
	"errors"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/web"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts chat on an authenticated group; both roles use it.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/chat", h.ListContacts)
	g.GET("/chat/user/:id", h.GetConversation)
	g.POST("/chat/user/:id", h.SendMessage)
}

func (h *Handler) ListContacts(c echo.Context) error {
	ctx := c.Request().Context()
	viewer, _ := auth.PrincipalFromContext(ctx)

	contacts, err := h.svc.Contacts(ctx, viewer)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, ContactsPage{
		Page:     "chat-users",
		Auth:     viewer.IdentityID,
		Contacts: contacts,
		Message:  c.QueryParam("message"),
	})
}

func (h *Handler) GetConversation(c echo.Context) error {
	ctx := c.Request().Context()
	viewer, _ := auth.PrincipalFromContext(ctx)

	with, msgs, err := h.svc.Conversation(ctx, viewer, c.Param("id"))
	if err != nil {
		return web.Fail(c, h.logger, "/chat", err)
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return web.Render(c, ConversationPage{
		Page:        "chat",
		Auth:        viewer.IdentityID,
		With:        with,
		IsClinician: viewer.Role == auth.RoleClinician,
		Messages:    msgs,
		Message:     c.QueryParam("message"),
	})
}

func (h *Handler) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	viewer, _ := auth.PrincipalFromContext(ctx)
	toID := c.Param("id")
	back := "/chat/user/" + url.PathEscape(toID)

	if _, err := h.svc.Send(ctx, viewer, toID, c.FormValue("content")); err != nil {
		if errors.Is(err, ErrUnknownContact) {
			back = "/chat"
		}
		return web.Fail(c, h.logger, back, err)
	}
	return web.Redirect(c, back, "", "")
}
