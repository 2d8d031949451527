package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores entries under namespace:generation:key. Invalidate bumps the
// generation so stale keys are never read again and expire on their own.
type Redis struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient, namespace string, ttl time.Duration) *Redis {
	if namespace == "" {
		namespace = "showflix"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{client: client, namespace: namespace, ttl: ttl}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis at %s: %w", addr, err)
	}
	return NewRedis(client, "showflix", ttl), nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) generationKey() string {
	return r.namespace + ":gen"
}

func (r *Redis) generation(ctx context.Context) (int64, error) {
	raw, err := r.client.Get(ctx, r.generationKey()).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cache: corrupt generation %q: %w", raw, err)
	}
	return gen, nil
}

func (r *Redis) key(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", r.namespace, gen, key)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	gen, err := r.generation(ctx)
	if err != nil {
		return nil, false, err
	}
	value, err := r.client.Get(ctx, r.key(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	gen, err := r.generation(ctx)
	if err != nil {
		return err
	}
	return r.SetAt(ctx, gen, key, value)
}

// Generation returns the current generation counter.
func (r *Redis) Generation(ctx context.Context) (int64, error) {
	return r.generation(ctx)
}

// SetAt writes under gen's namespace. A stale gen lands on keys Get no longer
// reads, and they expire with the ttl.
func (r *Redis) SetAt(ctx context.Context, gen int64, key string, value []byte) error {
	return r.client.Set(ctx, r.key(gen, key), value, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return r.client.Incr(ctx, r.generationKey()).Err()
}
