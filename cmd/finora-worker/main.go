package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finora/internal/amqp"
	"finora/internal/config"
	applog "finora/internal/log"
	"finora/internal/mirror"
	"finora/internal/mirror/google"
	"finora/internal/storage"
	"finora/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentWorker
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			"error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The worker exists to drain the activity queue; a broker is mandatory.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer amqpClient.Close()

	var writer mirror.EntryWriter
	if cfg.GoogleSpreadsheetID != "" {
		writer, err = google.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets mirror", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets mirror enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("No spreadsheet configured, mirror reconciliation disabled")
	}

	w := worker.New(repo, amqpClient, writer, worker.Config{
		ReconcileInterval: cfg.ReconcileInterval,
		BatchSize:         cfg.ActivityBatchSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Starting finora worker",
		"queue", cfg.AMQPQueue,
		"reconcile_interval", cfg.ReconcileInterval.String(),
		"batch_size", cfg.ActivityBatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.ConsumeActivity(gctx) })
	g.Go(func() error { return w.RunReconcile(gctx) })

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
