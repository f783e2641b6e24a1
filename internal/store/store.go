// Package store defines the key/JSON persistence port used by the engine
// and its memory, PostgreSQL and Redis adapters.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	// ErrUnavailable wraps every failure of the underlying storage backend.
	ErrUnavailable = errors.New("store unavailable")

	// ErrMalformedRecord is returned when a persisted value cannot be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)

// Store is a key -> JSON document store. Save replaces the whole value of a
// key atomically.
type Store interface {
	Load(ctx context.Context, key string) (json.RawMessage, bool, error)
	Save(ctx context.Context, key string, value json.RawMessage) error
}

// LoadJSON loads key into v. It reports whether the key existed.
// A value that cannot be decoded yields ErrMalformedRecord and leaves v untouched.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, found, err := s.Load(ctx, key)
	if err != nil {
		return false, err
	}
	if !found || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, key, err)
	}
	return true, nil
}

// LoadJSONOrZero is LoadJSON with local recovery from corrupt data: a
// malformed record is logged and treated as absent. Storage errors are
// still returned.
func LoadJSONOrZero[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var v T
	found, err := LoadJSON(ctx, s, key, &v)
	if err != nil {
		if errors.Is(err, ErrMalformedRecord) {
			log.Warn().Err(err).Str("key", key).Msg("Discarding malformed record")
			var zero T
			return zero, false, nil
		}
		return v, false, err
	}
	return v, found, nil
}

// SaveJSON encodes v and saves it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Save(ctx, key, raw)
}
