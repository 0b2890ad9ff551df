package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/config"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is a JSON cache in Redis. A Cache without a client misses on every
// Get and drops every Set, so callers work the same with or without Redis.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCache connects to Redis when cfg.Addr is set. A failed ping is logged
// and the cache keeps the client so it can recover once Redis is back.
func NewCache(ctx context.Context, cfg config.Redis, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		logger.Info("REDIS_URL not set, running without cache")
		return &Cache{logger: logger}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Warn("Failed to connect to Redis, cache calls will fail until it is reachable",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("Connected to Redis cache", zap.String("addr", cfg.Addr))
	}
	return &Cache{client: client, logger: logger}
}

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

func (c *Cache) Get(ctx context.Context, key string, dst any) error {
	data, err := c.GetBytes(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.SetBytes(ctx, key, data, ttl)
}

func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrCacheMiss
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (c *Cache) SetBytes(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Ping reports whether Redis answers. A disabled cache returns an error.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
