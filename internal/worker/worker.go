// Package worker runs the background side of the application: it consumes
// activity events from the broker into the feed table and periodically
// mirrors unmirrored ledger entries to the configured spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finora/internal/amqp"
	"finora/internal/mirror"
	"finora/internal/storage"
)

type Config struct {
	// ReconcileInterval is how often to look for unmirrored entries.
	ReconcileInterval time.Duration

	// BatchSize is the max number of entries to mirror per cycle.
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		ReconcileInterval: time.Minute,
		BatchSize:         50,
	}
}

type Worker struct {
	repo   *storage.SQLiteRepository
	broker *amqp.Client
	writer mirror.EntryWriter
	config Config
}

// New wires the worker. writer may be nil when no spreadsheet is configured;
// reconciliation becomes a no-op in that case.
func New(repo *storage.SQLiteRepository, broker *amqp.Client, writer mirror.EntryWriter, config Config) *Worker {
	return &Worker{
		repo:   repo,
		broker: broker,
		writer: writer,
		config: config,
	}
}

// ConsumeActivity blocks reading activity events from the broker and storing
// them in the feed table until ctx is cancelled.
func (w *Worker) ConsumeActivity(ctx context.Context) error {
	return w.broker.ConsumeActivity(ctx, func(msg *amqp.ActivityMessage) error {
		entry := storage.ActivityEntry{
			Username:   msg.Username,
			Kind:       msg.Kind,
			Detail:     msg.Detail,
			OccurredAt: msg.Timestamp,
		}
		if err := w.repo.RecordActivity(ctx, entry); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	})
}

// RunReconcile mirrors pending entries on a ticker until ctx is cancelled.
func (w *Worker) RunReconcile(ctx context.Context) error {
	if w.writer == nil {
		slog.InfoContext(ctx, "No mirror configured, reconcile loop disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.config.ReconcileInterval)
	defer ticker.Stop()

	// Process immediately on startup.
	w.reconcileBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.reconcileBatch(ctx)
		}
	}
}

func (w *Worker) reconcileBatch(ctx context.Context) {
	pending, err := w.repo.GetUnmirroredTransactions(ctx, w.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to fetch unmirrored entries", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	slog.DebugContext(ctx, "Mirroring pending entries", "count", len(pending))

	for _, tx := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ref, err := w.writer.Append(ctx, tx)
		if err != nil {
			slog.WarnContext(ctx, "Failed to mirror entry",
				"id", tx.ID, "error", err)
			if markErr := w.repo.MarkMirrorError(ctx, tx.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to flag mirror error",
					"id", tx.ID, "error", markErr)
			}
			continue
		}

		if err := w.repo.MarkMirrored(ctx, tx.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark entry mirrored",
				"id", tx.ID, "error", err)
			continue
		}

		slog.InfoContext(ctx, "Mirrored entry", "id", tx.ID, "row", ref)
	}
}
