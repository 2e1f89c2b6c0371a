package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/ticket-autopilot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-autopilot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Automation     *handlers.AutomationHandler
	AuthMiddleware *auth.Middleware
	MetricsHandler http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.MetricsHandler))
	}

	automation := app.Group("/automation", cfg.AuthMiddleware.Handle)
	automation.Post("/tickets/:id", cfg.Automation.RunTicket)
	automation.Post("/batch", cfg.Automation.RunBatch)
	automation.Get("/graph", cfg.Automation.Graph)
}
