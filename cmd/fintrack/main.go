package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	app := cli.NewApp(context.Background(), cfg, logger, true)

	authOpts := auth.Options{
		Mode:          auth.Mode(cfg.AuthMode),
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.SecureCookies,
		Logger:        logger.WithComponent(log.ComponentAuth).Slog(),
	}
	if authOpts.Mode == auth.ModeGoogle {
		authOpts.Google = auth.NewGoogleProvider(cfg.GoogleOAuthClientID, cfg.GoogleOAuthClientSecret, cfg.GoogleOAuthRedirectURL)
	}
	authSvc, err := auth.New(app.Store, authOpts)
	if err != nil {
		logger.Error("Failed to initialize sign-in", log.FieldError, err)
		app.Close()
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, app.Ledger, authSvc, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              app.Store.Ping,
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		app.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		app.Close()
	})
	app.StartCacheSweeper(ctx)

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth_mode", cfg.AuthMode,
		log.FieldModel, cfg.GeminiModel)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
