// Package settings stores schema-validated preferences (theme, locale,
// accessibility flags) in a key/value keyspace beside the entity store.
//
// A Store is an explicit handle: create it with New and release it with
// Close. Values are validated against an embedded CUE schema before every
// write and again on every read.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// ErrClosed is returned by writes on a closed Store.
var ErrClosed = errors.New("settings store closed")

// KV is the durable keyspace the Store writes through.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
}

// Store is a validated settings handle.
type Store struct {
	kv     KV
	log    *zap.Logger
	schema *Schema

	mu     sync.RWMutex
	closed bool
}

// New returns a Store over kv. A nil logger discards output.
func New(kv KV, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	schema, err := NewSchema()
	if err != nil {
		return nil, err
	}
	return &Store{kv: kv, log: log, schema: schema}, nil
}

// Close releases the handle. Later writes fail with ErrClosed and reads
// return nothing. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Get returns the setting stored under key, or nil when the key is missing,
// the stored value fails the schema or the stored bytes are malformed. The
// three cases are indistinguishable to the caller; each is logged.
func (s *Store) Get(ctx context.Context, key string) *types.Setting {
	if s.isClosed() {
		s.log.Warn("get on closed settings store", zap.String("key", key))
		return nil
	}
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn("reading setting failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !found {
		s.log.Debug("setting not found", zap.String("key", key))
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		s.log.Warn("stored setting is malformed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if err := s.schema.Validate(key, value); err != nil {
		s.log.Warn("stored setting fails schema", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &types.Setting{Key: key, Value: value}
}

// Set validates {key, value} and writes it. On validation failure nothing
// is written; the failure is logged and returned wrapped in
// types.ErrValidation so callers can tell a saved value from a rejected one.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if s.isClosed() {
		return ErrClosed
	}
	normalized, raw, err := normalize(value)
	if err == nil {
		err = s.schema.Validate(key, normalized)
	}
	if err != nil {
		s.log.Warn("rejected setting", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: setting %q: %v", types.ErrValidation, key, err)
	}
	if err := s.kv.Put(ctx, key, raw); err != nil {
		s.log.Error("writing setting failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	s.log.Debug("setting saved", zap.String("key", key))
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.isClosed() {
		return ErrClosed
	}
	if _, err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("deleting setting %q: %w", key, err)
	}
	return nil
}

// List returns every readable setting in key order. Entries Get would
// reject are skipped.
func (s *Store) List(ctx context.Context) ([]types.Setting, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	out := make([]types.Setting, 0, len(keys))
	for _, key := range keys {
		if setting := s.Get(ctx, key); setting != nil {
			out = append(out, *setting)
		}
	}
	return out, nil
}

// Known reports whether key has a dedicated schema.
func (s *Store) Known(key string) bool { return s.schema.Known(key) }

// normalize converts value to its JSON form and encoding, so the schema sees
// exactly what a later Get will decode.
func normalize(value any) (any, []byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil, err
	}
	return out, raw, nil
}
