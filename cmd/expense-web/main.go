package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/remote"
	"expensetracker/internal/session"
)

// staleSessionPruner is implemented by both session stores.
type staleSessionPruner interface {
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), "expense-web")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, "expense-web")

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	// One transport for every per-session client.
	httpClient := &http.Client{}
	apiCfg := remote.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}
	newAPI := func(sess *session.Session) remote.API {
		return remote.New(apiCfg, sess, remote.WithHTTPClient(httpClient), remote.WithLogger(logger))
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		CookieSecure:    cfg.SessionCookieSecure,
		SessionMaxAge:   cfg.SessionMaxAge,
		DefaultPageSize: cfg.DefaultPageSize,
		LoginRateLimit:  cfg.LoginRateLimit,
	}, apphttp.Deps{
		Sessions:  result.Sessions,
		NewAPI:    newAPI,
		Publisher: result.Publisher,
		Ready:     result.Ready,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	if pruner, ok := result.Sessions.(staleSessionPruner); ok {
		go pruneSessions(ctx, logger, pruner, cfg.SessionMaxAge)
	}

	go func() {
		logger.Info("Starting expense-web server",
			"port", cfg.Port,
			"api_base_url", cfg.APIBaseURL,
			"backend", backendCfg.Type,
			"activity_events", result.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// pruneSessions drops stored sessions older than the cookie lifetime once
// an hour.
func pruneSessions(ctx context.Context, logger *log.Logger, pruner staleSessionPruner, maxAge time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := pruner.DeleteStale(ctx, time.Now().Add(-maxAge))
			if err != nil {
				logger.Warn("Failed to prune stale sessions", log.FieldError, err)
				continue
			}
			if n > 0 {
				logger.Info("Pruned stale sessions", "count", n)
			}
		}
	}
}
