// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kvstore

import (
	"context"
	"fmt"
	"log/slog"
)

// Callbacks exposes a Store through completion callbacks. Each method
// starts the operation on a new goroutine and returns immediately;
// done is called exactly once with the same outcome the corresponding
// Store method would return. A nil done discards the outcome.
//
// Keys are accepted as any. A key that is not a string is converted
// with fmt.Sprint and a warning is logged.
type Callbacks struct {
	store  *Store
	logger *slog.Logger
}

// Callbacks returns the callback adapter for s.
func (s *Store) Callbacks() *Callbacks {
	return &Callbacks{store: s, logger: s.logger}
}

func (c *Callbacks) key(operation string, key any) string {
	if text, ok := key.(string); ok {
		return text
	}
	coerced := fmt.Sprint(key)
	c.logger.Warn("key is not a string, using its text form",
		"operation", operation,
		"key", coerced,
		"type", fmt.Sprintf("%T", key),
	)
	return coerced
}

func start[T any](operation func() (T, error), done func(T, error)) {
	go func() {
		result, err := operation()
		if done != nil {
			done(result, err)
		}
	}()
}

// GetCallback reports the value stored under key, or ErrNotFound.
func (c *Callbacks) GetCallback(ctx context.Context, key any, done func(value any, err error)) {
	name := c.key("get", key)
	start(func() (any, error) { return c.store.Get(ctx, name) }, done)
}

// SetCallback stores value under key and reports value back on
// success.
func (c *Callbacks) SetCallback(ctx context.Context, key any, value any, done func(value any, err error)) {
	name := c.key("set", key)
	start(func() (any, error) {
		if err := c.store.Set(ctx, name, value); err != nil {
			return nil, err
		}
		return value, nil
	}, done)
}

// RemoveCallback deletes key.
func (c *Callbacks) RemoveCallback(ctx context.Context, key any, done func(err error)) {
	name := c.key("remove", key)
	start(func() (struct{}, error) {
		return struct{}{}, c.store.Remove(ctx, name)
	}, discardResult(done))
}

// ClearCallback deletes every key.
func (c *Callbacks) ClearCallback(ctx context.Context, done func(err error)) {
	start(func() (struct{}, error) {
		return struct{}{}, c.store.Clear(ctx)
	}, discardResult(done))
}

// LengthCallback reports the number of keys.
func (c *Callbacks) LengthCallback(ctx context.Context, done func(length int, err error)) {
	start(func() (int, error) { return c.store.Length(ctx) }, done)
}

// KeysCallback reports every key in storage order.
func (c *Callbacks) KeysCallback(ctx context.Context, done func(keys []string, err error)) {
	start(func() ([]string, error) { return c.store.Keys(ctx) }, done)
}

// KeyCallback reports the key at position n, or nil when n is out of
// range.
func (c *Callbacks) KeyCallback(ctx context.Context, n int, done func(key any, err error)) {
	start(func() (any, error) {
		key, ok, err := c.store.Key(ctx, n)
		if err != nil || !ok {
			return nil, err
		}
		return key, nil
	}, done)
}

// IterateCallback runs Store.Iterate and reports its result.
func (c *Callbacks) IterateCallback(ctx context.Context, fn func(value any, key string) (result any, done bool), done func(result any, err error)) {
	start(func() (any, error) { return c.store.Iterate(ctx, fn) }, done)
}

func discardResult(done func(error)) func(struct{}, error) {
	if done == nil {
		return nil
	}
	return func(_ struct{}, err error) { done(err) }
}
