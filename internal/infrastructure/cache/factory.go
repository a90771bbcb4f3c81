package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/infrastructure/config"
)

// StoreFactory creates view stores based on configuration.
type StoreFactory struct {
	cfg    config.CacheConfig
	redis  config.RedisConfig
	logger *zap.Logger
}

// StoreFactoryOption is a functional option for configuring the factory.
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory.
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// NewStoreFactory creates a new factory.
func NewStoreFactory(cfg config.CacheConfig, redisCfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		cfg:    cfg,
		redis:  redisCfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore creates the configured store backend. When the backend cannot
// be opened and AllowMemoryFallback is set, a MemoryStore is returned
// instead so the dashboard still runs, just without durability.
func (f *StoreFactory) CreateStore() (Store, error) {
	store, err := f.create()
	if err == nil {
		f.logger.Info("View store ready", zap.String("backend", f.cfg.Backend))
		return store, nil
	}

	if f.cfg.AllowMemoryFallback {
		f.logger.Warn("View store backend unavailable, falling back to in-memory store",
			zap.String("backend", f.cfg.Backend),
			zap.Error(err),
		)
		return NewMemoryStore(), nil
	}
	return nil, err
}

func (f *StoreFactory) create() (Store, error) {
	switch f.cfg.Backend {
	case "pebble":
		return NewPebbleStore(f.cfg.Dir)
	case "redis":
		return NewRedisStore(RedisConfig{
			Host:     f.redis.Host,
			Port:     f.redis.Port,
			Password: f.redis.Password,
			DB:       f.redis.DB,
		})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", f.cfg.Backend)
	}
}
