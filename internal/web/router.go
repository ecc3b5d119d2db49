package web

import (
	"github.com/gofiber/fiber/v2"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Pages   *PagesHandler
	Tickets *TicketsHandler
	Health  *HealthHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get("/", cfg.Pages.Home)

	app.Get("/create-ticket", cfg.Tickets.NewTicket)
	app.Post("/create-ticket", cfg.Tickets.CreateTicket)

	app.Get("/tickets", cfg.Tickets.ListTickets)
	app.Post("/tickets/:id/status", cfg.Tickets.UpdateStatusFromList)

	app.Get("/ticket/:id", cfg.Tickets.GetTicket)
	app.Post("/ticket/:id/status", cfg.Tickets.UpdateStatusFromDetail)
}
