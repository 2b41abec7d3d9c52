package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/sushix/checkout-api/internal/domain"
)

const defaultRedisPrefix = "order:"

// RedisConfig collects connection parameters for the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisStore keeps pending orders in Redis so multiple instances can
// share one order cache. Entries carry the same TTL as the memory store;
// Redis handles expiry itself.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed order store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("store: redis address is required")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultOrderTTL
	}
	return &RedisStore{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) key(orderID string) string {
	return s.prefix + orderID
}

// Put implements the OrderStore interface.
func (s *RedisStore) Put(ctx context.Context, order domain.PendingOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("store: encode order: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(order.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store: put order: %w", err)
	}
	return nil
}

// Get implements the OrderStore interface.
func (s *RedisStore) Get(ctx context.Context, orderID string) (domain.PendingOrder, error) {
	data, err := s.rdb.Get(ctx, s.key(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PendingOrder{}, ErrOrderNotFound
	}
	if err != nil {
		return domain.PendingOrder{}, fmt.Errorf("store: get order: %w", err)
	}
	var order domain.PendingOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return domain.PendingOrder{}, fmt.Errorf("store: decode order: %w", err)
	}
	return order, nil
}

// Delete implements the OrderStore interface.
func (s *RedisStore) Delete(ctx context.Context, orderID string) error {
	if err := s.rdb.Del(ctx, s.key(orderID)).Err(); err != nil {
		return fmt.Errorf("store: delete order: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
