package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/paygate/internal/core/domain"
)

// Client wraps Redis operations for the transaction status read cache.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks if Redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func statusKey(txHash string) string {
	return fmt.Sprintf("txstatus:%s", txHash)
}

// GetStatus returns the cached record for a hash, if present.
func (c *Client) GetStatus(ctx context.Context, txHash string) (*domain.TransactionStatusRecord, bool, error) {
	val, err := c.rdb.Get(ctx, statusKey(txHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get failed: %w", err)
	}

	var rec domain.TransactionStatusRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached status: %w", err)
	}
	return &rec, true, nil
}

// SetStatus caches a record. Called after every successful state transition so
// readers observe the newest status without hitting the store.
func (c *Client) SetStatus(ctx context.Context, rec *domain.TransactionStatusRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	if err := c.rdb.Set(ctx, statusKey(rec.TxHash), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// InvalidateStatus drops a cached record.
func (c *Client) InvalidateStatus(ctx context.Context, txHash string) error {
	return c.rdb.Del(ctx, statusKey(txHash)).Err()
}
