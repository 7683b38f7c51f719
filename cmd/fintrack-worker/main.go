package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting fintrack-worker")

	startup, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	res := cli.OpenStore(startup, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close storage", log.FieldError, err)
		}
	}()

	sheetsClient, err := gsheet.New(startup, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger.WithComponent(log.ComponentSheets).Slog())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeaders(startup); err != nil {
		// The mirror still works without headers.
		logger.Warn("Could not write sheet headers", log.FieldError, err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP).Slog())
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer bus.Close()

	syncWorker := worker.NewSyncWorker(res.Store, sheetsClient, logger.WithComponent(log.ComponentWorker).Slog())

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.ConsumeEntryEvents(gctx, syncWorker.HandleEntryEvent)
	})
	g.Go(func() error {
		// Repairs rows for events lost while the worker was down or the
		// sheet was unreachable.
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				r, err := syncWorker.ReconcileKnown(gctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Periodic reconcile failed", log.FieldOperation, log.OpSync, log.FieldError, err)
					continue
				}
				if r.Appended+r.Removed > 0 {
					logger.Info("Periodic reconcile repaired mirror",
						log.FieldOperation, log.OpSync, "appended", r.Appended, "removed", r.Removed)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
