// Package storage provides the key-value store backing the page cache and
// user settings. Two backends exist: an in-process map (the default) and
// Redis. All values are whole-document JSON blobs; callers replace values
// in full, never patch them in place.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a key has no value (or the value expired).
var ErrNotFound = errors.New("storage: key not found")

// KV is a minimal key-value store.
//
// A zero ttl on Set means the value does not expire. Implementations must
// treat Get of an expired key identically to a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON reads a key and unmarshals it into v.
func GetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode value for %q: %w", key, err)
	}
	return nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, kv KV, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}
	return kv.Set(ctx, key, data, ttl)
}
