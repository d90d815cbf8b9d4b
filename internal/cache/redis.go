package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stivenPRO500/siembrasApp/internal/config"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: client}, nil
}

// Get retrieves a value from Redis. Returns "" without error on a miss.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set sets a value in Redis with expiration
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// AcquireThrottle sets a short-lived marker key. It returns true when the
// marker was absent, i.e. the caller won the window. Used to keep the
// status-refresh endpoint from recomputing a tenant's parcels on every
// poll.
func (c *Client) AcquireThrottle(ctx context.Context, key string, window time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, 1, window).Result()
}

// GetOwnersSummary returns the cached admin owners summary, "" on a miss.
func (c *Client) GetOwnersSummary(ctx context.Context) (string, error) {
	return c.Get(ctx, "admin:owners-summary")
}

// SetOwnersSummary caches the admin owners summary.
func (c *Client) SetOwnersSummary(ctx context.Context, payload string, expiration time.Duration) error {
	return c.Set(ctx, "admin:owners-summary", payload, expiration)
}

// Close closes the Redis client
func (c *Client) Close() error {
	return c.rdb.Close()
}
