package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"finassist/internal/assistant"
	"finassist/internal/auth"
	"finassist/internal/cache"
	"finassist/internal/cli"
	apphttp "finassist/internal/http"
	"finassist/internal/log"
	"finassist/internal/retry"
	"finassist/internal/services"
)

func main() {
	cfg, err := cli.LoadConfig(false)
	if err != nil {
		logger := cli.SetupLogger("info", log.ComponentApp)
		cli.Exit(logger, "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)
	cli.WarnDefaultSecret(logger, cfg)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		cli.Exit(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		cli.Exit(logger, "Failed to initialize token service", err)
	}
	gen := cli.NewGenerator(ctx, logger, cfg)
	if c, ok := gen.(io.Closer); ok {
		defer c.Close()
	}

	// Plan explanations depend only on the month's income, so repeated
	// plans reuse the first reply. Chat always reaches the generator.
	var planGen assistant.TextGenerator
	if gen != nil {
		planGen = cache.NewGenerator(gen, cache.DefaultSize, cache.DefaultTTL)
	}

	finance := services.NewFinanceService(res.Store, res.Publisher(), planGen)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Finance: finance,
		Auth:    services.NewAuthService(res.Store, auth.NewHasher(), tokens),
		Chat: services.NewChatService(finance, res.Store, gen, retry.Policy{
			Attempts: cfg.ChatRetryAttempts,
			Backoff:  cfg.ChatRetryBackoff,
		}),
	}, apphttp.Options{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting finassist server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", res.Events != nil,
			"generator", gen != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			_ = res.Cleanup()
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
