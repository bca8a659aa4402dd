package incident

import (
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

func (h *Handler) RegisterRoutes(g *echo.Group) {
	patients := g.Group("", auth.RequireRole(auth.RolePatient))
	patients.GET("/incident-form", h.ListOwn)
	patients.POST("/incident-form", h.File)

	clinicians := g.Group("", auth.RequireRole(auth.RoleClinician))
	clinicians.GET("/incident-response", h.ListPending)
	clinicians.POST("/incident-response/:id", h.Respond)
}

func (h *Handler) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	patient, _ := auth.PrincipalFromContext(ctx)

	in, err := h.svc.ForPatient(ctx, patient.IdentityID)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, FormPage{
		Page:      "incident-form",
		Auth:      patient.IdentityID,
		Incidents: in,
		Message:   c.QueryParam("message"),
	})
}

func (h *Handler) File(c echo.Context) error {
	ctx := c.Request().Context()
	patient, _ := auth.PrincipalFromContext(ctx)

	at, err := ParseOccurredAt(c.FormValue("occurred_at"))
	if err != nil {
		return web.Fail(c, h.logger, "/incident-form", err)
	}
	if _, err := h.svc.File(ctx, patient, at, c.FormValue("content")); err != nil {
		return web.Fail(c, h.logger, "/incident-form", err)
	}
	return web.Redirect(c, "/incident-form", "", "Incident reported")
}

func (h *Handler) ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	clinician, _ := auth.PrincipalFromContext(ctx)

	pending, err := h.svc.Pending(ctx)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, ResponsePage{
		Page:    "incident-response",
		Auth:    clinician.IdentityID,
		Pending: pending,
		Message: c.QueryParam("message"),
	})
}

func (h *Handler) Respond(c echo.Context) error {
	ctx := c.Request().Context()
	clinician, _ := auth.PrincipalFromContext(ctx)

	err := h.svc.Respond(ctx, clinician, c.Param("id"), Outcome(c.FormValue("resolve")))
	if err != nil {
		return web.Fail(c, h.logger, "/incident-response", err)
	}
	return web.Redirect(c, "/incident-response", "", "")
}
