package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client is a thin cache over Redis for public catalog reads. Every method
// fails open: the caller treats an error the same as a miss and goes to the
// database. Correctness never depends on this cache.
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

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ErrCacheMiss is returned when a key is absent
var ErrCacheMiss = redis.Nil

// GetJSON loads a cached value into out. Returns ErrCacheMiss on absence.
func (c *Client) GetJSON(ctx context.Context, key string, out interface{}) error {
	raw, err := c.rdb.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// SetJSON stores a value with a TTL
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(key), raw, ttl).Err()
}

// Invalidate drops cached keys, used after admin catalog writes
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = cacheKey(k)
	}
	return c.rdb.Del(ctx, full...).Err()
}

// InvalidatePrefix drops every cached key under a prefix
func (c *Client) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, cacheKey(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func cacheKey(key string) string {
	return "catalog:" + key
}
