package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Redis implementa Client sobre go-redis.
type Redis struct {
	c          *rdb.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedis crea un cliente Redis.
func NewRedis(addr string, db int, prefix string, defaultTTL time.Duration) *Redis {
	return NewRedisFromClient(rdb.NewClient(&rdb.Options{Addr: addr, DB: db}), prefix, defaultTTL)
}

// NewRedisFromClient reutiliza un cliente existente (compartido con el rate limiter).
func NewRedisFromClient(c *rdb.Client, prefix string, defaultTTL time.Duration) *Redis {
	return &Redis{c: c, prefix: prefix, defaultTTL: defaultTTL}
}

// Client expone el cliente subyacente.
func (r *Redis) Client() *rdb.Client { return r.c }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, prefixed(r.prefix, key)).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get: %w", err)
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.c.Set(ctx, prefixed(r.prefix, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = prefixed(r.prefix, k)
	}
	if err := r.c.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.c.Close() }
