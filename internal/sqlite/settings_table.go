// This file implements the flat settings keyspace. Values are opaque bytes
// to the store; internal/settings owns their schema.
package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// PutSetting inserts or replaces a key.
func (t *Tx) PutSetting(ctx context.Context, key string, value []byte) error {
	if err := t.require(types.CollectionSettings); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%w: setting key must not be empty", types.ErrValidation)
	}
	if _, err := t.exec(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(value)); err != nil {
		return fmt.Errorf("writing setting: %w", err)
	}
	t.touch(types.CollectionSettings, key)
	return nil
}

// GetSetting returns the raw value; found is false for a missing key.
func (t *Tx) GetSetting(ctx context.Context, key string) (value []byte, found bool, err error) {
	var s string
	found, err = t.queryRow(ctx, "SELECT value FROM settings WHERE key = ?", []any{key}, &s)
	if err != nil {
		return nil, false, fmt.Errorf("getting setting %s: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}
	return []byte(s), true, nil
}

// DeleteSetting removes a key. Returns false if it was absent.
func (t *Tx) DeleteSetting(ctx context.Context, key string) (bool, error) {
	if err := t.require(types.CollectionSettings); err != nil {
		return false, err
	}
	res, err := t.exec(ctx, "DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("deleting setting %s: %w", key, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.touch(types.CollectionSettings, key)
	}
	return n > 0, nil
}

// SettingKeys returns every key in sorted order.
func (t *Tx) SettingKeys(ctx context.Context) ([]string, error) {
	keys, err := t.queryStrings(ctx, "SELECT key FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	return keys, nil
}

// SettingsKV adapts the backend to the byte keyspace internal/settings
// consumes. Each call is its own transaction.
type SettingsKV struct {
	b *Backend
}

// SettingsKV returns the settings keyspace of the backend.
func (b *Backend) SettingsKV() *SettingsKV {
	return &SettingsKV{b: b}
}

var settingsScope = []string{types.CollectionSettings}

// Get returns the stored bytes for key.
func (kv *SettingsKV) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	err = kv.b.Read(ctx, func(tx *Tx) error {
		value, found, err = tx.GetSetting(ctx, key)
		return err
	})
	return value, found, err
}

// Put stores value under key.
func (kv *SettingsKV) Put(ctx context.Context, key string, value []byte) error {
	return kv.b.Write(ctx, settingsScope, func(tx *Tx) error {
		return tx.PutSetting(ctx, key, value)
	})
}

// Delete removes key.
func (kv *SettingsKV) Delete(ctx context.Context, key string) (deleted bool, err error) {
	err = kv.b.Write(ctx, settingsScope, func(tx *Tx) error {
		deleted, err = tx.DeleteSetting(ctx, key)
		return err
	})
	return deleted, err
}

// Keys lists every stored key.
func (kv *SettingsKV) Keys(ctx context.Context) (keys []string, err error) {
	err = kv.b.Read(ctx, func(tx *Tx) error {
		keys, err = tx.SettingKeys(ctx)
		return err
	})
	return keys, err
}
