package scheduling

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
	g.GET("/create-appointment", h.BookingForm)
	g.POST("/create-appointment", h.Book)

	clinicians := g.Group("", auth.RequireRole(auth.RoleClinician))
	clinicians.GET("/doctor-appointments", h.Agenda)
}

func (h *Handler) BookingForm(c echo.Context) error {
	ctx := c.Request().Context()
	viewer, _ := auth.PrincipalFromContext(ctx)

	clinicians, err := h.svc.ListClinicians(ctx)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, BookingPage{
		Page:       "create-appointment",
		Auth:       viewer.IdentityID,
		Clinicians: clinicians,
		Message:    c.QueryParam("message"),
	})
}

func (h *Handler) Book(c echo.Context) error {
	ctx := c.Request().Context()
	viewer, _ := auth.PrincipalFromContext(ctx)

	at, err := ParseScheduledAt(c.FormValue("scheduled_at"))
	if err != nil {
		return web.Fail(c, h.logger, "/create-appointment", err)
	}
	_, err = h.svc.Book(ctx, viewer, c.FormValue("patient_id"), c.FormValue("doctor_id"), at, c.FormValue("reason"))
	if err != nil {
		return web.Fail(c, h.logger, "/create-appointment", err)
	}
	return web.Redirect(c, "/create-appointment", "", "Appointment created")
}

func (h *Handler) Agenda(c echo.Context) error {
	ctx := c.Request().Context()
	doctor, _ := auth.PrincipalFromContext(ctx)

	appts, err := h.svc.Agenda(ctx, doctor.IdentityID)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, AgendaPage{
		Page:         "doctor-appointments",
		Auth:         doctor.IdentityID,
		Appointments: appts,
		Message:      c.QueryParam("message"),
	})
}
