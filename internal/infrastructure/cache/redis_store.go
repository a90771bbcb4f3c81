package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/backend/internal/domain/orders"
)

// keyPrefix namespaces the view keys in a shared Redis instance.
const keyPrefix = "orderdesk:"

// RedisConfig holds Redis connection settings for the view store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStore implements Store on Redis, for deployments where several
// dashboard replicas share one last-known-good view.
type RedisStore struct {
	client     *redis.Client
	ownsClient bool
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to Redis: %w", err)
	}

	store := NewRedisStoreWithClient(client)
	store.ownsClient = true
	return store, nil
}

// NewRedisStoreWithClient wraps an existing client. The caller retains
// ownership and is responsible for closing it.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		// Drop the corrupted entry rather than serving it forever.
		_ = s.client.Del(ctx, keyPrefix+key)
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

// Items returns the cached item set, or nil when none exists.
func (s *RedisStore) Items(ctx context.Context) ([]orders.EnrichedItem, error) {
	var items []orders.EnrichedItem
	ok, err := s.get(ctx, keyItems, &items)
	if err != nil || !ok {
		return nil, err
	}
	return items, nil
}

// Metrics returns the cached metrics snapshot.
func (s *RedisStore) Metrics(ctx context.Context) (orders.MetricsSnapshot, bool, error) {
	var m orders.MetricsSnapshot
	ok, err := s.get(ctx, keyMetrics, &m)
	return m, ok, err
}

// Filters returns the persisted filter spec.
func (s *RedisStore) Filters(ctx context.Context) (orders.FilterSpec, bool, error) {
	var spec orders.FilterSpec
	ok, err := s.get(ctx, keyFilters, &spec)
	return spec, ok, err
}

// SetSnapshot writes items and metrics in one transactional pipeline. No TTL:
// the view is last-known-good data, not an expiring cache entry.
func (s *RedisStore) SetSnapshot(ctx context.Context, items []orders.EnrichedItem, metrics orders.MetricsSnapshot) error {
	itemsData, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cache: encode items: %w", err)
	}
	metricsData, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("cache: encode metrics: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+keyItems, itemsData, 0)
		pipe.Set(ctx, keyPrefix+keyMetrics, metricsData, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: write snapshot: %w", err)
	}
	return nil
}

// SetFilters persists the active filter spec.
func (s *RedisStore) SetFilters(ctx context.Context, spec orders.FilterSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("cache: encode filters: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+keyFilters, data, 0).Err(); err != nil {
		return fmt.Errorf("cache: set filters: %w", err)
	}
	return nil
}

// Close closes the client if this store created it.
func (s *RedisStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
