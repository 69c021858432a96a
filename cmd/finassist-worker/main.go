package main

import (
	"context"
	"errors"
	"net/url"

	"finassist/internal/cli"
	"finassist/internal/log"
	"finassist/internal/services"
	"finassist/internal/worker"
)

func main() {
	cfg, err := cli.LoadConfig(true)
	if err != nil {
		logger := cli.SetupLogger("info", log.ComponentWorker)
		cli.Exit(logger, "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting finassist-worker")

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
	if res.Events == nil {
		_ = res.Cleanup()
		cli.Exit(logger, "AMQP client unavailable", errors.New("could not connect to "+redact(cfg.AMQPURL)))
	}

	// Alerts only need the summary path; no events are published from here.
	finance := services.NewFinanceService(res.Store, nil, nil)
	if err := worker.NewAlertWorker(finance).Run(ctx, res.Events); err != nil {
		logger.Error("Message consumption failed", "error", err)
		return
	}
	logger.Info("Worker shutdown complete")
}

// redact hides the broker password in log output.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
