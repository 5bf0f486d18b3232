package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for two concerns: a non-authoritative stock read
// cache refreshed from order events, and shared fixed-window rate-limit
// counters. Authoritative stock lives in Postgres only.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(productID int64) string {
	return fmt.Sprintf("stock:%d", productID)
}

// SetStock caches a product's base stock count.
func (c *Client) SetStock(ctx context.Context, productID int64, stock int) error {
	return c.rdb.HSet(ctx, stockKey(productID), "base", stock).Err()
}

// SetVariantStock caches per-variant stock counts for a product.
func (c *Client) SetVariantStock(ctx context.Context, productID int64, stocks map[string]int) error {
	if len(stocks) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(stocks))
	for key, qty := range stocks {
		fields[key] = qty
	}
	return c.rdb.HSet(ctx, stockKey(productID), fields).Err()
}

// GetStock reads a cached stock count; field is "base" or a variant key.
// Returns ok=false on a cache miss.
func (c *Client) GetStock(ctx context.Context, productID int64, field string) (int, bool, error) {
	val, err := c.rdb.HGet(ctx, stockKey(productID), field).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	stock, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt stock cache entry for product %d: %w", productID, err)
	}
	return stock, true, nil
}

// InvalidateStock drops a product's cached stock entirely.
func (c *Client) InvalidateStock(ctx context.Context, productID int64) error {
	return c.rdb.Del(ctx, stockKey(productID)).Err()
}

// CountRequest atomically increments a fixed-window counter, attaching the
// window TTL when the counter is fresh. Returns the post-increment count
// and the time left until the window resets.
func (c *Client) CountRequest(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit incr failed: %w", err)
	}

	if count == 1 {
		if err := c.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("rate limit expire failed: %w", err)
		}
		return count, window, nil
	}

	ttl, err := c.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit ttl failed: %w", err)
	}
	if ttl < 0 {
		// Expiry was lost (e.g. the INCR/PExpire pair raced a crash);
		// reattach it so the key cannot count forever.
		if err := c.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("rate limit expire failed: %w", err)
		}
		ttl = window
	}
	return count, ttl, nil
}
