// Package cache provides the small key/value cache the API injects where it
// needs one (identity lookups). Every cache has a fixed TTL; Memory also
// bounds its size and evicts least-recently-used entries.
//
// There is no package-level instance. Whoever builds the server owns the
// cache and passes it down, and tests pass their own.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache stores opaque values under string keys. A miss is (nil, false, nil);
// err is reserved for a broken backend.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

const (
	DefaultTTL  = 5 * time.Minute
	DefaultSize = 1024
)

// GetJSON reads key and decodes it into a T. A value that no longer decodes is
// treated as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var v T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, nil
	}
	return v, true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON[T any](ctx context.Context, c Cache, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Delete(context.Context, string) error              { return nil }
