// Package worker drives recurring processing from outside the ledger: a
// TickWorker publishes periodic ticks and a TickHandler turns each delivered
// tick into a processing run.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
)

// TickPublisher sends recurring ticks. *amqp.Client satisfies it.
type TickPublisher interface {
	PublishRecurringTick(ctx context.Context, asOf time.Time) error
}

// DueProcessor materializes due recurring entries.
// *services.RecurringProcessor satisfies it.
type DueProcessor interface {
	ProcessDue(ctx context.Context, asOf time.Time) (int, error)
}

// TickWorker publishes a tick at startup and then once per interval.
type TickWorker struct {
	publisher TickPublisher
	interval  time.Duration
	now       func() time.Time
}

func NewTickWorker(publisher TickPublisher, interval time.Duration) *TickWorker {
	return &TickWorker{publisher: publisher, interval: interval, now: time.Now}
}

// Tick publishes a single tick for the current time.
func (w *TickWorker) Tick(ctx context.Context) error {
	if w.publisher == nil {
		return fmt.Errorf("tick worker not properly initialized")
	}
	asOf := w.now()
	if err := w.publisher.PublishRecurringTick(ctx, asOf); err != nil {
		return fmt.Errorf("publish recurring tick: %w", err)
	}
	return nil
}

// Run ticks until ctx is done. Failed publishes are logged and retried on
// the next interval.
func (w *TickWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("invalid tick interval %s", w.interval)
	}

	slog.InfoContext(ctx, "Starting recurring tick loop", "interval", w.interval.String())
	if err := w.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Startup tick failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping recurring tick loop", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic tick failed", "error", err)
			}
		}
	}
}

// TickHandler runs a processing pass for each delivered tick.
type TickHandler struct {
	processor DueProcessor
	now       func() time.Time
}

func NewTickHandler(processor DueProcessor) *TickHandler {
	return &TickHandler{processor: processor, now: time.Now}
}

// Handle processes entries due at the tick's AsOf. A tick without AsOf uses
// the receive time. Errors make the message redeliver.
func (h *TickHandler) Handle(ctx context.Context, tick *amqp.RecurringTick) error {
	if h.processor == nil {
		return fmt.Errorf("tick handler not properly initialized")
	}
	asOf := tick.AsOf
	if asOf.IsZero() {
		asOf = h.now()
	}
	slog.InfoContext(ctx, "Processing recurring tick",
		"as_of", asOf.Format(time.RFC3339),
		"published", tick.Timestamp.Format(time.RFC3339))

	n, err := h.processor.ProcessDue(ctx, asOf)
	if err != nil {
		return fmt.Errorf("process due entries: %w", err)
	}
	slog.InfoContext(ctx, "Recurring tick handled", "processed", n)
	return nil
}
