// Package server assembles the HTTP surface: global middleware, the gate
// pipeline and every domain's routes.
package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/config"
	"github.com/ehr/portal/internal/domain/chat"
	"github.com/ehr/portal/internal/domain/identity"
	"github.com/ehr/portal/internal/domain/incident"
	"github.com/ehr/portal/internal/domain/medication"
	"github.com/ehr/portal/internal/domain/portal"
	"github.com/ehr/portal/internal/domain/scheduling"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/db"
	"github.com/ehr/portal/internal/platform/events"
	"github.com/ehr/portal/internal/platform/middleware"
	"github.com/ehr/portal/internal/platform/web"
)

// Repositories is the persistence each domain is built on.
type Repositories struct {
	Identities    identity.Repository
	Messages      chat.Repository
	Prescriptions medication.PrescriptionRepository
	Incidents     incident.Repository
	Appointments  scheduling.AppointmentRepository
	MedicalInfo   portal.MedicalInfoRepository
}

// PostgresRepositories backs every domain with q.
func PostgresRepositories(q db.Querier) Repositories {
	return Repositories{
		Identities:    identity.NewRepoPG(q),
		Messages:      chat.NewRepoPG(q),
		Prescriptions: medication.NewPrescriptionRepoPG(q),
		Incidents:     incident.NewRepoPG(q),
		Appointments:  scheduling.NewAppointmentRepoPG(q),
		MedicalInfo:   portal.NewMedicalInfoRepoPG(q),
	}
}

// Sessions resolves cookies for the gate and issues them at login.
type Sessions interface {
	auth.SessionResolver
	identity.SessionManager
}

type Options struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Repos    Repositories
	Sessions Sessions
	Events   events.Publisher
	DBHealth db.HealthChecker
}

// New builds the echo instance. Middleware order matters: the session is
// loaded before rate limiting so limits key on identity, and the session
// gate runs before any route-level role gate.
func New(o Options) *echo.Echo {
	cfg := o.Config
	logger := o.Logger
	pub := o.Events
	if pub == nil {
		pub = events.Nop{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{echo.HeaderContentType, middleware.RequestIDHeader},
			ExposeHeaders:    []string{web.StatusHeader},
			AllowCredentials: true,
		}))
	}
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	e.Use(auth.LoadSession(o.Sessions, cfg.SessionCookieName))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 || rateLimitCfg.BurstSize <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	e.Use(middleware.RateLimit(rateLimitCfg))
	e.Use(auth.RequireSession(auth.AnonymousSkipper))

	// Services
	identitySvc := identity.NewService(o.Repos.Identities, pub, logger)
	chatSvc := chat.NewService(o.Repos.Messages, identitySvc, pub)
	medSvc := medication.NewService(o.Repos.Prescriptions, identitySvc, pub)
	incidentSvc := incident.NewService(o.Repos.Incidents, pub)
	schedSvc := scheduling.NewService(o.Repos.Appointments, identitySvc, pub)
	portalSvc := portal.NewService(o.Repos.MedicalInfo, identitySvc)

	// Routes
	root := e.Group("")
	cookie := identity.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.CookieSecure}
	identity.NewHandler(identitySvc, o.Sessions, cookie, logger).RegisterRoutes(root)
	portal.NewHandler(portalSvc, logger).RegisterRoutes(root)
	chat.NewHandler(chatSvc, logger).RegisterRoutes(root)
	medication.NewHandler(medSvc, logger).RegisterRoutes(root)
	incident.NewHandler(incidentSvc, logger).RegisterRoutes(root)
	scheduling.NewHandler(schedSvc, logger).RegisterRoutes(root)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if o.DBHealth != nil {
		e.GET("/health/db", db.HealthHandler(o.DBHealth))
	}

	// Role groups each install a catch-all; replace it so unknown paths
	// are a plain 404 rather than a role failure.
	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.ErrNotFound
	})

	return e
}
