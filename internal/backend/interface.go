package backend

import (
	"context"
	"time"

	"spendlog/internal/cache"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/receipts"
	"spendlog/internal/services"
	"spendlog/internal/storage"
)

// CleanupFunc releases resources held by a Backend.
type CleanupFunc func() error

// Backend is everything the HTTP server needs, built from configuration.
type Backend struct {
	Repo     *storage.SQLiteRepository
	Expenses *services.ExpenseService
	Accounts *services.AccountService
	Receipts receipts.Store
	// LocalReceipts is set when receipts are served from disk by this
	// process.
	LocalReceipts *receipts.LocalStore
	Limiter       ratelimit.Allower
	Caches        *cache.Manager
	Cleanup       CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}

// Config holds everything needed to assemble a Backend.
type Config struct {
	SQLiteDBPath string

	JWTSecret  string
	SessionTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitPerMinute int

	ReceiptBackend ReceiptBackendType
	ReceiptDir     string
	ReceiptBaseURL string
	GCSBucket      string
	// GoogleCredentialsJSON is a service account key; when empty GCS uses
	// application default credentials.
	GoogleCredentialsJSON string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// ReceiptBackendType names where uploaded receipts are kept.
type ReceiptBackendType string

const (
	LocalReceipts ReceiptBackendType = "local"
	GCSReceipts   ReceiptBackendType = "gcs"
)

func (bt ReceiptBackendType) String() string {
	return string(bt)
}

// IsValid returns true if the receipt backend type is known.
func (bt ReceiptBackendType) IsValid() bool {
	switch bt {
	case LocalReceipts, GCSReceipts:
		return true
	default:
		return false
	}
}
