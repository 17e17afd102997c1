package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/amqp"
	"spendlog/internal/cli"
	"spendlog/internal/config"
	applog "spendlog/internal/log"
	"spendlog/internal/sheets"
	gsheet "spendlog/internal/sheets/google"
	"spendlog/internal/sheets/memory"
	"spendlog/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting spendlog export worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	var exporter sheets.ExpenseExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.WithComponent(applog.ComponentSheets).ErrorContext(context.Background(),
				"Failed to initialize Google Sheets client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = memory.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exported rows are kept in memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WithComponent(applog.ComponentAMQP).ErrorContext(context.Background(),
			"Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(repo, exporter)
	stopped := make(chan struct{})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			logger.Warn("Consumer did not stop in time")
		}
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, exportWorker.HandleEvent)
	})
	g.Go(func() error {
		<-gctx.Done()
		return amqpClient.Close()
	})
	go func() {
		defer close(stopped)
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Export worker stopped with error", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Export worker stopped")
}
