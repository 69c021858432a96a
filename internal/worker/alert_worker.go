package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finassist/internal/amqp"
	"finassist/internal/core"
)

// AlertRecorder recomputes a month's alerts and stores the new ones.
// Implemented by *services.FinanceService.
type AlertRecorder interface {
	RecordAlerts(ctx context.Context, userID string, month core.Month) (int, error)
}

// EventSource delivers record events to a handler until ctx is done.
// Implemented by *amqp.Client.
type EventSource interface {
	ConsumeRecordEvents(ctx context.Context, handler func(context.Context, *amqp.RecordEvent) error) error
}

// AlertWorker turns record events into stored notifications.
type AlertWorker struct {
	alerts AlertRecorder
}

func NewAlertWorker(alerts AlertRecorder) *AlertWorker {
	return &AlertWorker{alerts: alerts}
}

// HandleRecordEvent processes a single record event from AMQP. A returned
// error makes the message go back on the queue.
func (w *AlertWorker) HandleRecordEvent(ctx context.Context, event *amqp.RecordEvent) error {
	slog.InfoContext(ctx, "Processing record event",
		"kind", event.Kind,
		"action", event.Action,
		"user_id", event.UserID,
		"month", event.Month.String())

	added, err := w.alerts.RecordAlerts(ctx, event.UserID, event.Month)
	if err != nil {
		return fmt.Errorf("record alerts for %s %s: %w", event.UserID, event.Month, err)
	}
	if added > 0 {
		slog.InfoContext(ctx, "Stored new alerts",
			"user_id", event.UserID,
			"month", event.Month.String(),
			"count", added)
	}
	return nil
}

// Run consumes events from src until ctx is cancelled.
func (w *AlertWorker) Run(ctx context.Context, src EventSource) error {
	slog.InfoContext(ctx, "Alert worker started")
	err := src.ConsumeRecordEvents(ctx, w.HandleRecordEvent)
	if err != nil && ctx.Err() != nil {
		slog.InfoContext(ctx, "Alert worker stopped")
		return nil
	}
	return err
}
