// Package cache keeps a short per-learner memory of recently generated item
// titles, in Redis when one is configured and in process memory otherwise.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDepth is how many titles are remembered per learner.
const DefaultDepth = 20

// Recent remembers the titles most recently generated for a learner.
type Recent interface {
	// Push records title as the newest entry for learnerID.
	Push(ctx context.Context, learnerID, title string) error

	// List returns remembered titles, newest first.
	List(ctx context.Context, learnerID string) ([]string, error)
}

// Redis wraps a Redis client.
type Redis struct {
	Client *redis.Client
	depth  int64
	ttl    time.Duration
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New connects to Redis at url and verifies the connection.
func New(ctx context.Context, url string) (*Redis, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Redis{Client: client, depth: DefaultDepth, ttl: 30 * 24 * time.Hour}, nil
}

// Close shuts down the cache client.
func (c *Redis) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Redis) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func recentKey(learnerID string) string {
	return "drillz:recent:" + learnerID
}

func (c *Redis) Push(ctx context.Context, learnerID, title string) error {
	key := recentKey(learnerID)
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, title)
		p.LTrim(ctx, key, 0, c.depth-1)
		p.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push recent title: %w", err)
	}
	return nil
}

func (c *Redis) List(ctx context.Context, learnerID string) ([]string, error) {
	titles, err := c.Client.LRange(ctx, recentKey(learnerID), 0, c.depth-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent titles: %w", err)
	}
	return titles, nil
}
