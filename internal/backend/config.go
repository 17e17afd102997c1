package backend

import (
	"fmt"
	"os"

	"spendlog/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	receiptBackend := ReceiptBackendType(appConfig.ReceiptBackend)
	if !receiptBackend.IsValid() {
		return Config{}, fmt.Errorf("invalid receipt backend in config: %s", appConfig.ReceiptBackend)
	}

	credentials := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	if credentials == "" {
		if path := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				return Config{}, fmt.Errorf("read service account file: %w", err)
			}
			credentials = string(b)
		}
	}

	return Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,

		JWTSecret:  appConfig.JWTSecret,
		SessionTTL: appConfig.SessionTTL,

		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,

		RateLimitPerMinute: appConfig.RateLimitPerMinute,

		ReceiptBackend:        receiptBackend,
		ReceiptDir:            appConfig.ReceiptDir,
		ReceiptBaseURL:        appConfig.ReceiptBaseURL,
		GCSBucket:             appConfig.GCSBucket,
		GoogleCredentialsJSON: credentials,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per minute")
	}

	switch c.ReceiptBackend {
	case LocalReceipts:
		if c.ReceiptDir == "" {
			return fmt.Errorf("receipt directory is required for local receipts")
		}
	case GCSReceipts:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs receipts")
		}
	default:
		return fmt.Errorf("invalid receipt backend: %s", c.ReceiptBackend)
	}
	// AMQP and Redis are optional
	return nil
}
