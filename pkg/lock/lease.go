// Package lock provides a Redis-backed lease so that only one replica runs a
// periodic job per interval.
package lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mailtrack:lease:"

// Lease is held by whichever replica sets the key first. It is never
// released early; it expires after ttl.
type Lease struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	owner string
}

// NewRedisClient parses a redis:// URL and pings the server
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewLease(rdb *redis.Client, name string, ttl time.Duration) *Lease {
	host, _ := os.Hostname()
	return &Lease{
		rdb:   rdb,
		key:   keyPrefix + name,
		ttl:   ttl,
		owner: host + "/" + uuid.New().String(),
	}
}

// TryAcquire returns true if this process now holds the lease
func (l *Lease) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lease SETNX %s: %w", l.key, err)
	}
	return ok, nil
}
