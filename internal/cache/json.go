package cache

import (
	"context"
	"encoding/json"
)

// JSON is a typed view over a Store. A nil store disables caching.
type JSON[T any] struct {
	store Store
}

// NewJSON wraps store.
func NewJSON[T any](store Store) JSON[T] {
	return JSON[T]{store: store}
}

// Get decodes the entry at key. Undecodable entries count as misses.
func (c JSON[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if c.store == nil {
		return zero, false, nil
	}
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false, nil
	}
	return out, true, nil
}

// Set encodes and stores value.
func (c JSON[T]) Set(ctx context.Context, key string, value T) error {
	if c.store == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key, raw)
}

// Generation reports the store generation, zero when caching is disabled.
func (c JSON[T]) Generation(ctx context.Context) (int64, error) {
	if c.store == nil {
		return 0, nil
	}
	return c.store.Generation(ctx)
}

// SetAt encodes value and stores it only if the store is still at gen.
func (c JSON[T]) SetAt(ctx context.Context, gen int64, key string, value T) error {
	if c.store == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.SetAt(ctx, gen, key, raw)
}

// Invalidate drops every entry of the underlying store.
func (c JSON[T]) Invalidate(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Invalidate(ctx)
}
