package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dfryer1193/gitpress/internal/backend"
	"github.com/dfryer1193/gitpress/internal/config"
	"github.com/dfryer1193/gitpress/internal/middleware"
	"github.com/dfryer1193/gitpress/internal/rest"
	webhook "github.com/dfryer1193/gitpress/webhook/http"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// NewRouter assembles the HTTP surface. The webhook is only mounted when a
// secret is configured.
func NewRouter(cfg *config.Config, b backend.Backend) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(router, b, rest.Settings{
		ReadToken: cfg.GitHub.Token,
		Lang:      cfg.Site.Lang,
		PageSize:  cfg.Feed.PageSize,
	})

	if cfg.Server.WebhookSecret != "" {
		webhook.NewWebhookHandler(cfg.Server.WebhookSecret, b, cfg.GitHub.Token, cfg.Paths.Index, cfg.GitHub.Branch).RegisterRoutes(router)
	} else {
		log.Info().Msg("server.webhook_secret not set, index audit webhook disabled")
	}

	return router
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, b backend.Backend, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           NewRouter(cfg, b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("backend", cfg.Backend).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
