package medication

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

// RegisterRoutes mounts the refill workflow. Patients request, the
// prescribing clinician answers.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	patients := g.Group("", auth.RequireRole(auth.RolePatient))
	patients.GET("/request-refill", h.ListOwn)
	patients.POST("/request-refill", h.RequestRefill)

	clinicians := g.Group("", auth.RequireRole(auth.RoleClinician))
	clinicians.GET("/patient-refills", h.ListPending)
	clinicians.POST("/patient-refills/:id", h.Respond)
}

func (h *Handler) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	patient, _ := auth.PrincipalFromContext(ctx)

	ps, err := h.svc.ForPatient(ctx, patient.IdentityID)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, RequestRefillPage{
		Page:          "request-refill",
		Auth:          patient.IdentityID,
		Prescriptions: ps,
		Message:       c.QueryParam("message"),
	})
}

func (h *Handler) RequestRefill(c echo.Context) error {
	ctx := c.Request().Context()
	patient, _ := auth.PrincipalFromContext(ctx)

	err := h.svc.RequestRefill(ctx, patient, c.FormValue("prescription_id"), c.FormValue("reason"))
	if err != nil {
		return web.Fail(c, h.logger, "/request-refill", err)
	}
	return web.Redirect(c, "/request-refill", "", "Refill requested")
}

func (h *Handler) ListPending(c echo.Context) error {
	return h.renderPending(c, c.QueryParam("message"))
}

func (h *Handler) Respond(c echo.Context) error {
	ctx := c.Request().Context()
	doctor, _ := auth.PrincipalFromContext(ctx)

	done, err := h.svc.RespondRefill(ctx, doctor, c.Param("id"), Decision(c.FormValue("decision")))
	if err != nil {
		return web.Fail(c, h.logger, "/patient-refills", err)
	}
	if !done {
		return h.renderPending(c, "")
	}
	return web.Redirect(c, "/patient-refills", "", "")
}

func (h *Handler) renderPending(c echo.Context, message string) error {
	ctx := c.Request().Context()
	doctor, _ := auth.PrincipalFromContext(ctx)

	pending, err := h.svc.PendingFor(ctx, doctor.IdentityID)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, RefillAckPage{
		Page:    "refill-ack",
		Auth:    doctor.IdentityID,
		Pending: pending,
		Message: message,
	})
}
