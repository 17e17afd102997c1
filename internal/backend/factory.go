package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"

	"spendlog/internal/amqp"
	"spendlog/internal/auth"
	"spendlog/internal/cache"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/receipts"
	"spendlog/internal/services"
	"spendlog/internal/storage"
)

const cacheCleanupInterval = 5 * time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend. Redis and AMQP are
// optional: when unreachable the backend falls back to in-process state
// and runs without event publishing.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*Backend, error) {
		_ = cleanup()
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize SQLite repository: %w", err))
	}
	closers = append(closers, repo.Close)
	f.logger.Info("Initialized SQLite repository", "db_path", config.SQLiteDBPath)

	caches := cache.NewManager()
	closers = append(closers, func() error { caches.Stop(); return nil })

	revocations := f.createRevocationStore(config, caches, &closers)
	limiter := f.createLimiter(config, &closers)
	caches.StartCleanup(cacheCleanupInterval)

	store, local, err := f.createReceiptStore(ctx, config)
	if err != nil {
		return fail(err)
	}

	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	expenses := services.NewExpenseService(repo, publisher)
	closers = append(closers, expenses.Close)

	accounts := services.NewAccountService(repo, auth.NewJWTManager(config.JWTSecret, config.SessionTTL), revocations)

	return &Backend{
		Repo:          repo,
		Expenses:      expenses,
		Accounts:      accounts,
		Receipts:      store,
		LocalReceipts: local,
		Limiter:       limiter,
		Caches:        caches,
		Cleanup:       cleanup,
	}, nil
}

func (f *DefaultFactory) createRevocationStore(config Config, caches *cache.Manager, closers *[]func() error) auth.RevocationStore {
	if config.RedisAddr != "" {
		store, err := auth.NewRedisRevocationStore(config.RedisAddr, config.RedisPassword, config.RedisDB, f.logger)
		if err == nil {
			*closers = append(*closers, store.Close)
			f.logger.Info("Using Redis session revocation", "addr", config.RedisAddr)
			return store
		}
		f.logger.Warn("Redis unavailable, revoked sessions are kept in memory", "error", err)
	}
	store := auth.NewMemoryRevocationStore()
	caches.Register(store.Cleaner())
	return store
}

func (f *DefaultFactory) createLimiter(config Config, closers *[]func() error) ratelimit.Allower {
	if config.RedisAddr != "" {
		rl, err := ratelimit.NewRedisLimiter(config.RedisAddr, config.RedisPassword, config.RedisDB, config.RateLimitPerMinute, f.logger)
		if err == nil {
			*closers = append(*closers, rl.Close)
			return rl
		}
		f.logger.Warn("Redis unavailable, rate limiting per process", "error", err)
	}
	cfg := ratelimit.DefaultConfig()
	cfg.RequestsPerMinute = config.RateLimitPerMinute
	rl := ratelimit.NewLimiter(cfg)
	*closers = append(*closers, func() error { rl.Stop(); return nil })
	return rl
}

func (f *DefaultFactory) createReceiptStore(ctx context.Context, config Config) (receipts.Store, *receipts.LocalStore, error) {
	switch config.ReceiptBackend {
	case GCSReceipts:
		var opts []option.ClientOption
		if config.GoogleCredentialsJSON != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(config.GoogleCredentialsJSON)))
		}
		store, err := receipts.NewGCSStore(ctx, config.GCSBucket, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize GCS receipt store: %w", err)
		}
		f.logger.Info("Storing receipts in GCS", "bucket", config.GCSBucket)
		return store, nil, nil
	default:
		store, err := receipts.NewLocalStore(config.ReceiptDir, config.ReceiptBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize local receipt store: %w", err)
		}
		f.logger.Info("Storing receipts on disk", "dir", config.ReceiptDir)
		return store, store, nil
	}
}
