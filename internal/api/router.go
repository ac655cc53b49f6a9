package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sellerpanel/account-service/docs"
	"github.com/sellerpanel/account-service/internal/api/handler"
	"github.com/sellerpanel/account-service/internal/api/middleware"
	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/core/ports"
)

const metricsSubsystem = "http"

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Accounts     ports.AccountService
	Tokens       middleware.TokenParser
	Revoker      middleware.RevocationChecker // optional
	Checks       map[string]handler.Check
	Logger       zerolog.Logger
	CookieSecure bool

	// Registry receives the HTTP metrics; nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string { return xid.New().String() },
	}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational routes (no auth required) ---
	health := handler.NewHealthHandler(deps.Checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Account routes ---
	accounts := handler.NewAccountHandler(deps.Accounts, deps.CookieSecure)
	auth := middleware.Auth(deps.Tokens, deps.Revoker, deps.Logger)

	users := e.Group("/users")
	users.POST("/signup", accounts.Signup)
	users.POST("/signin", accounts.Signin)
	users.POST("/signout", accounts.Signout, auth)
	users.GET("", accounts.List, auth)
	users.GET("/search", accounts.Search, auth)
	users.GET("/:id", accounts.Get, auth, middleware.RBAC(domain.RoleAdmin, domain.RoleManager))
	users.PUT("/:id", accounts.Update, auth)
	users.DELETE("/:id", accounts.Delete, auth)

	return e
}
