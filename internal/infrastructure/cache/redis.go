package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// OpenRedis connects and pings once; the client is closed again if the ping fails.
func OpenRedis(addr string, db int, zl *zap.Logger) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db, DialTimeout: dialTimeout})
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	if zl != nil {
		zl.Named("redis").Info("connected", zap.String("addr", addr), zap.Int("db", db))
	}
	return r, nil
}

// Pinger adapts a client to a health probe.
func Pinger(r *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error { return r.Ping(ctx).Err() }
}
