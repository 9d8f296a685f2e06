package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/auth"
	"quiz-testing-service/internal/config"
	"quiz-testing-service/internal/logger"
	transport "quiz-testing-service/internal/transport/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) must be set")
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	feed := app.NewAttemptFeed()
	submission := app.NewSubmissionService(b.tests, b.store, b.store).WithFeed(feed)
	router := transport.NewRouter(transport.Deps{
		Users: app.NewUserService(b.store, app.UserServiceConfig{
			BcryptCost:  cfg.Auth.BcryptCost,
			AdminEmails: cfg.Auth.AdminEmails,
		}),
		Catalog:  app.NewCatalogService(b.store, b.tests, b.store, b.tests),
		Attempts: app.NewAttemptService(b.tests, b.store, b.tracker, submission, config.TTLDuration(cfg.Auth.StartGrace, 5*time.Minute)),
		Reports:  app.NewReportService(b.store, b.tests, b.store, b.store),
		Feed:     feed,
		Tokens:   auth.NewTokenIssuer(secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz testing service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
