package portal

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/web"
	"github.com/ehr/portal/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the home page, which anonymous visitors may see,
// and the medical info pages.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/", h.Home)

	patients := g.Group("", auth.RequireRole(auth.RolePatient))
	patients.GET("/my-info", h.MyInfo)

	clinicians := g.Group("", auth.RequireRole(auth.RoleClinician))
	clinicians.GET("/patient-info", h.PatientInfo)
}

// Home never redirects: failures on "/" would loop.
func (h *Handler) Home(c echo.Context) error {
	ctx := c.Request().Context()
	page := HomePage{Page: "index", Message: c.QueryParam("message")}

	viewer, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		page.Links = LinksFor("")
		return web.Render(c, page)
	}

	page.Page = "dashboard"
	page.Auth = viewer.IdentityID
	page.Role = viewer.Role
	page.Links = LinksFor(viewer.Role)
	if i, err := h.svc.Identity(ctx, viewer.IdentityID); err == nil {
		page.Username = i.Username
	} else {
		h.logger.Warn().Err(err).Str("identity_id", viewer.IdentityID).Msg("dashboard identity lookup failed")
	}
	return web.Render(c, page)
}

func (h *Handler) MyInfo(c echo.Context) error {
	ctx := c.Request().Context()
	patient, _ := auth.PrincipalFromContext(ctx)

	info, err := h.svc.MyInfo(ctx, patient.IdentityID)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, MyInfoPage{
		Page:    "my-info",
		Auth:    patient.IdentityID,
		Info:    info,
		Message: c.QueryParam("message"),
	})
}

func (h *Handler) PatientInfo(c echo.Context) error {
	ctx := c.Request().Context()
	clinician, _ := auth.PrincipalFromContext(ctx)
	p := pagination.FromContext(c)

	patients, total, err := h.svc.ListPatientInfo(ctx, p)
	if err != nil {
		return web.Fail(c, h.logger, "/", err)
	}
	return web.Render(c, PatientInfoPage{
		Page:     "patient-info",
		Auth:     clinician.IdentityID,
		Patients: patients,
		Paging:   pagination.NewPage(p, total, "/patient-info"),
		Message:  c.QueryParam("message"),
	})
}
