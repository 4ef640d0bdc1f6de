package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/storage"
)

// StoreType selects the session store implementation.
type StoreType string

const (
	MemoryStoreType StoreType = "memory"
	SQLiteStoreType StoreType = "sqlite"
	RedisStoreType  StoreType = "redis"
)

func (t StoreType) String() string {
	return string(t)
}

func (t StoreType) IsValid() bool {
	switch t {
	case MemoryStoreType, SQLiteStoreType, RedisStoreType:
		return true
	default:
		return false
	}
}

// StoreConfig holds what any of the stores may need.
type StoreConfig struct {
	Type StoreType
	TTL  time.Duration

	// Memory specific
	MaxEntries      int
	CleanupInterval time.Duration

	// SQLite specific
	SQLiteDBPath string

	// Redis specific
	Redis RedisConfig
}

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// StoreResult is a ready store plus its cleanup.
type StoreResult struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory creates session stores from configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore builds the store named by cfg.Type.
func (f *Factory) CreateStore(ctx context.Context, cfg StoreConfig) (*StoreResult, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid session store type: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLiteStoreType:
		return f.createSQLiteStore(cfg)
	case RedisStoreType:
		return f.createRedisStore(ctx, cfg)
	default:
		return f.createMemoryStore(cfg), nil
	}
}

func (f *Factory) createMemoryStore(cfg StoreConfig) *StoreResult {
	store := NewMemoryStore(cfg.MaxEntries, cfg.TTL)

	mgr := cache.NewManager(f.logger)
	mgr.Register(store.Cleaner())
	mgr.StartCleanup(cleanupInterval(cfg))

	f.logger.Info("Initialized memory session store",
		"max_entries", cfg.MaxEntries,
		"ttl", cfg.TTL)

	return &StoreResult{
		Store: store,
		Cleanup: func() error {
			mgr.Stop()
			return store.Close()
		},
	}
}

func (f *Factory) createSQLiteStore(cfg StoreConfig) (*StoreResult, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	store := NewSQLiteStore(repo, cfg.TTL)

	mgr := cache.NewManager(f.logger)
	mgr.Register(store)
	mgr.StartCleanup(cleanupInterval(cfg))

	f.logger.Info("Initialized SQLite session store", "db_path", cfg.SQLiteDBPath)

	return &StoreResult{
		Store: store,
		Cleanup: func() error {
			mgr.Stop()
			return store.Close()
		},
	}, nil
}

func (f *Factory) createRedisStore(ctx context.Context, cfg StoreConfig) (*StoreResult, error) {
	store, err := NewRedisStore(ctx, cfg.Redis, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis session store: %w", err)
	}

	f.logger.Info("Initialized Redis session store", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)

	return &StoreResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

func cleanupInterval(cfg StoreConfig) time.Duration {
	if cfg.CleanupInterval > 0 {
		return cfg.CleanupInterval
	}
	return 5 * time.Minute
}
