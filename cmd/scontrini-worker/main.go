package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"scontrini/internal/amqp"
	"scontrini/internal/config"
	applog "scontrini/internal/log"
	"scontrini/internal/sheets"
	gsheet "scontrini/internal/sheets/google"
	mem "scontrini/internal/sheets/memory"
	"scontrini/internal/storage"
	"scontrini/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	applog.Setup("scontrini-worker")
	slog.Info("Starting scontrini-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Export target: Google Sheets when configured, otherwise an in-memory
	// sink so the worker still drains the queue in local development.
	var exporter sheets.ReceiptExporter
	if cfg.SheetsConfigured() {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			slog.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		slog.Info("Google Sheets export target initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = mem.New()
		slog.Info("Google Sheets disabled - using in-memory export target")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, exporter, cfg.SyncBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// On startup, process any pending receipts that might have been missed
	slog.Info("Performing startup sync check...")
	if err := exportWorker.StartupSyncCheck(ctx); err != nil {
		slog.Error("Failed startup sync check", "error", err)
		// Don't exit - continue with normal operation
	}

	g, gctx := errgroup.WithContext(ctx)

	// Consume sync messages from the queue
	g.Go(func() error {
		err := amqpClient.ConsumeReceiptSync(gctx, func(msg *amqp.ReceiptSyncMessage) error {
			return exportWorker.HandleSyncMessage(gctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Periodic sweep for receipts whose messages were lost
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := exportWorker.ProcessPendingReceipts(gctx); err != nil {
					slog.Error("Periodic sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		slog.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Worker shutdown complete")
}
