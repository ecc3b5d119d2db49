package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-web/internal/apiclient"
	"github.com/spec-kit/ticket-web/internal/events"
	"github.com/spec-kit/ticket-web/internal/formtoken"
	"github.com/spec-kit/ticket-web/internal/observability"
	"github.com/spec-kit/ticket-web/internal/persistence"
	"github.com/spec-kit/ticket-web/internal/service"
	"github.com/spec-kit/ticket-web/internal/session"
	"github.com/spec-kit/ticket-web/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	store := persistence.NewStore(cfg.Redis, logger)
	defer store.Close()

	client, err := apiclient.New(apiclient.Config{
		BaseURL:  cfg.TicketAPI.BaseURL,
		Logger:   logger,
		Recorder: metrics,
	})
	if err != nil {
		return err
	}

	tokens, err := formtoken.NewIssuer(cfg.Security.Secret, cfg.Security.FormTokenTTL(), store)
	if err != nil {
		return err
	}
	sessions := session.NewManager(store, cfg.Security.SessionTTL(), cfg.App.Env == "production")

	dispatcher := events.NewInMemoryDispatcher()
	service.NewActivityService(dispatcher, logger, metrics).RegisterHandlers()

	app, err := web.NewApp(web.Deps{
		App:      cfg.App,
		API:      client,
		Tokens:   tokens,
		Sessions: sessions,
		Store:    store,
		Events:   dispatcher,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("ticket_api", client.BaseURL()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(shutdownTimeout)
}
