// Package cli provides common initialization utilities.
// It consolidates the startup sequence shared by cmd/finassist,
// cmd/finassist-worker and cmd/finctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finassist/internal/assistant"
	"finassist/internal/backend"
	"finassist/internal/config"
	"finassist/internal/log"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger. An unknown level falls back to info.
func SetupLogger(level, component string) *log.Logger {
	logger, err := log.NewText(os.Stdout, level, component)
	if err != nil {
		logger, _ = log.NewText(os.Stdout, "info", component)
		logger.Warn("Unknown log level, using info", "level", level)
	}
	log.SetDefault(logger)
	return logger
}

// LoadConfig loads .env, the optional TOML file and the environment, then
// validates the result. forWorker adds the worker's requirements.
func LoadConfig(forWorker bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	validate := cfg.Validate
	if forWorker {
		validate = cfg.ValidateWorker
	}
	if err := validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WarnDefaultSecret logs when tokens are signed with the built-in secret.
func WarnDefaultSecret(logger *log.Logger, cfg *config.Config) {
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET is not set, tokens are signed with the default secret")
	}
}

// OpenBackend opens the record store and event client named by cfg.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	return backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
}

// NewGenerator returns the Gemini client, or nil when no API key is set or
// the client cannot be built. A nil generator makes chat reply with the
// not-configured message and plans use the fallback explanation.
func NewGenerator(ctx context.Context, logger *log.Logger, cfg *config.Config) assistant.TextGenerator {
	if cfg.GoogleAPIKey == "" {
		logger.Warn("GOOGLE_API_KEY is not set, text generation is disabled")
		return nil
	}
	gen, err := assistant.NewGemini(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize Gemini client, text generation is disabled", "error", err)
		return nil
	}
	logger.Info("Initialized Gemini client", "model", cfg.GeminiModel)
	return gen
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Exit logs err and terminates the process.
func Exit(logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
