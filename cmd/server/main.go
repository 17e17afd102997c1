package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"spendlog/internal/backend"
	"spendlog/internal/cli"
	"spendlog/internal/config"
	apphttp "spendlog/internal/http"
	applog "spendlog/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	b, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).
		CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", "error", err)
		os.Exit(1)
	}

	deps := apphttp.Deps{
		Expenses: b.Expenses,
		Accounts: b.Accounts,
		Receipts: b.Receipts,
		Health:   b.Repo,
		Limiter:  b.Limiter,
		Logger:   logger,
	}
	if b.LocalReceipts != nil {
		deps.LocalReceipts = b.LocalReceipts
	}
	srv, err := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		DefaultPageSize: cfg.DefaultPageSize,
		ReceiptMaxBytes: cfg.ReceiptMaxBytes,
		SecureCookies:   cfg.SecureCookies,
		TrustedProxies:  cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		_ = b.Cleanup()
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := b.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	go func() {
		logger.Info("Starting spendlog server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"receipt_backend", cfg.ReceiptBackend,
			"amqp_enabled", cfg.AMQPURL != "",
			"redis_enabled", cfg.RedisAddr != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			_ = b.Cleanup()
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
