package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/storefront/storefront-api/internal/api/handler"
	"github.com/storefront/storefront-api/internal/api/middleware"
	"github.com/storefront/storefront-api/internal/core/policy"
	"github.com/storefront/storefront-api/internal/core/ports"

	_ "github.com/storefront/storefront-api/docs"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Auth       ports.AuthService
	Users      ports.UserService
	Products   ports.ProductService
	Categories ports.CategoryService
	Tasks      ports.TaskService
	Tokens     ports.TokenService
	Abilities  *policy.Factory
	// Health maps dependency names to readiness checks.
	Health map[string]handler.Pinger
	// Registry receives the HTTP metrics. Nil uses the default registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds the Echo instance with every route registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "storefront",
		Registerer: registerer,
	}))

	abilities := d.Abilities
	if abilities == nil {
		abilities = policy.NewFactory(nil)
	}
	gate := middleware.NewGate(d.Tokens, abilities)

	h := handlers{
		users:      handler.NewUserHandler(d.Auth, d.Users),
		products:   handler.NewProductHandler(d.Products),
		categories: handler.NewCategoryHandler(d.Categories),
		tasks:      handler.NewTaskHandler(d.Tasks),
	}
	for _, r := range routes(h) {
		e.Add(r.method, r.path, r.handler, gate.Check(r.req))
	}

	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
