// Package web serves the ticket pages: creation form, filterable list and
// ticket detail with status updates.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-web/internal/config"
	"github.com/spec-kit/ticket-web/internal/domain"
	"github.com/spec-kit/ticket-web/internal/events"
	"github.com/spec-kit/ticket-web/internal/formtoken"
	"github.com/spec-kit/ticket-web/internal/observability"
	"github.com/spec-kit/ticket-web/internal/persistence"
	"github.com/spec-kit/ticket-web/internal/session"
	"github.com/spec-kit/ticket-web/internal/views"
)

const layout = "layouts/main"

//go:embed templates
var templateFS embed.FS

// TicketAPI is everything the pages need from the ticket service.
type TicketAPI interface {
	views.TicketCreator
	views.TicketLister
	views.TicketReader
	views.StatusUpdater
	Ping(ctx context.Context) error
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles what the app is built from.
type Deps struct {
	App      config.AppConfig
	API      TicketAPI
	Tokens   *formtoken.Issuer
	Sessions *session.Manager
	Store    Pinger
	Events   events.Dispatcher
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewApp builds the fiber app with templates, middlewares and routes.
func NewApp(deps Deps) (*fiber.App, error) {
	if deps.API == nil || deps.Tokens == nil {
		return nil, errors.New("web: ticket API and form token issuer are required")
	}
	engine, err := newEngine()
	if err != nil {
		return nil, fmt.Errorf("web: load templates: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Events == nil {
		deps.Events = events.NewInMemoryDispatcher()
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewManager(persistence.NewMemory(), 0, false)
	}

	app := fiber.New(fiber.Config{
		AppName:               deps.App.Name,
		Views:                 engine,
		DisableStartupMessage: true,
		UnescapePath:          true,
		ReadTimeout:           30 * time.Second,
	})
	RegisterMiddlewares(app, deps.Logger, deps.Metrics, deps.App.RequestTimeout())

	validate := views.NewValidator()
	RegisterRoutes(app, RouteConfig{
		Pages:   NewPagesHandler(),
		Tickets: NewTicketsHandler(deps, validate),
		Health:  NewHealthHandler(deps.App, deps.Store, deps.API, deps.Metrics),
	})
	return app, nil
}

func newEngine() (*html.Engine, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(map[string]interface{}{
		"statuses":   domain.AllStatuses,
		"priorities": domain.AllPriorities,
		"truncate":   domain.Truncate,
	})
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return engine, nil
}
