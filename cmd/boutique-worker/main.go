package main

import (
	"context"
	"errors"
	"os"
	"time"

	"boutique/internal/amqp"
	"boutique/internal/cli"
	"boutique/internal/config"
	"boutique/internal/log"
	"boutique/internal/report"
	"boutique/internal/sheets"
	gsheet "boutique/internal/sheets/google"
	memsheet "boutique/internal/sheets/memory"
	"boutique/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting boutique-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() { _ = be.Cleanup() }()

	appender, err := newAppender(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(be.Repository, appender, cfg.SyncBatchSize, logger)
	if err := syncWorker.EnsureHeaders(ctx); err != nil {
		logger.Error("Failed to write sheet headers", log.FieldError, err)
	}

	// Catch up on anything written while the worker was down.
	if n, err := syncWorker.SyncPending(ctx); err != nil {
		logger.Error("Startup sync incomplete", log.FieldError, err, "synced", n)
	} else {
		logger.Info("Startup sync complete", "synced", n)
	}

	scheduler := report.NewScheduler(
		report.NewBuilder(be.Repository),
		report.NewNotifier(cfg.ReportWebhook, logger),
		syncWorker,
		logger,
	)
	if err := scheduler.Schedule(cfg.ReportCron, cfg.SyncCron); err != nil {
		logger.Error("Failed to schedule jobs", log.FieldError, err)
		os.Exit(1)
	}
	scheduler.Start()

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		go func() {
			err := client.ConsumeRecordSync(ctx, syncWorker.HandleRecordSync)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
				stop()
			}
		}()
	} else {
		logger.Info("AMQP not configured, relying on the periodic sweep", "sync_cron", cfg.SyncCron)
	}

	<-ctx.Done()
	logger.Info("Shutting down worker")

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}

// newAppender picks the Sheets client when a spreadsheet is configured and
// the in-process appender otherwise.
func newAppender(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.RowAppender, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled, mirroring into memory")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	}, logger.WithComponent(log.ComponentSheets).Logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}
