// This file implements the property-triple collection: one row per
// (entity_id, language, key) holding the overlay text of binders,
// categories and pictograms.
package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// LoadProperties returns the overlay bag of an entity, or nil if it has none.
func (t *Tx) LoadProperties(ctx context.Context, entityID string) (types.Properties, error) {
	rows, err := t.query(ctx,
		"SELECT language, key, value FROM properties WHERE entity_id = ?", entityID)
	if err != nil {
		return nil, fmt.Errorf("loading properties for %s: %w", entityID, err)
	}
	defer rows.Close()

	var props types.Properties
	for rows.Next() {
		var lang, key, value string
		if err := rows.Scan(&lang, &key, &value); err != nil {
			return nil, storageError("scanning property", err)
		}
		if props == nil {
			props = types.Properties{}
		}
		props.Set(lang, key, value)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterating properties", err)
	}
	return props, nil
}

// replaceProperties drops every triple of the entity and inserts props,
// which must already be canonical.
func (t *Tx) replaceProperties(ctx context.Context, entityType, entityID string, props types.Properties) error {
	if err := t.require(types.CollectionProperties); err != nil {
		return err
	}
	if _, err := t.exec(ctx, "DELETE FROM properties WHERE entity_id = ?", entityID); err != nil {
		return fmt.Errorf("clearing properties for %s: %w", entityID, err)
	}
	for _, lang := range props.Languages() {
		for key, value := range props[lang] {
			if _, err := t.exec(ctx,
				"INSERT INTO properties (entity_id, entity_type, language, key, value) VALUES (?, ?, ?, ?, ?)",
				entityID, entityType, lang, key, value); err != nil {
				return fmt.Errorf("inserting property (%s, %s, %s): %w", entityID, lang, key, err)
			}
		}
	}
	t.touch(types.CollectionProperties, entityID)
	return nil
}

// deleteProperties drops every triple of the entity.
func (t *Tx) deleteProperties(ctx context.Context, entityID string) error {
	if err := t.require(types.CollectionProperties); err != nil {
		return err
	}
	if _, err := t.exec(ctx, "DELETE FROM properties WHERE entity_id = ?", entityID); err != nil {
		return fmt.Errorf("deleting properties for %s: %w", entityID, err)
	}
	t.touch(types.CollectionProperties, entityID)
	return nil
}

// AddProperty inserts one triple. It fails with ErrUniquenessViolation if
// (entityID, language, key) already has a value.
func (t *Tx) AddProperty(ctx context.Context, entityType, entityID, language, key, value string) error {
	return t.writeProperty(ctx, entityType, entityID, language, key, value, false)
}

// SetProperty inserts or replaces one triple.
func (t *Tx) SetProperty(ctx context.Context, entityType, entityID, language, key, value string) error {
	return t.writeProperty(ctx, entityType, entityID, language, key, value, true)
}

func (t *Tx) writeProperty(ctx context.Context, entityType, entityID, language, key, value string, upsert bool) error {
	if err := t.require(types.CollectionProperties); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%w: empty property key", types.ErrValidation)
	}
	lang, err := types.CanonicalLanguage(language)
	if err != nil {
		return err
	}
	ok, err := t.entityExists(ctx, entityType, entityID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", types.ErrNotFound, entityType, entityID)
	}

	if !upsert {
		dup, err := t.exists(ctx,
			"SELECT 1 FROM properties WHERE entity_id = ? AND language = ? AND key = ?",
			entityID, lang, key)
		if err != nil {
			return fmt.Errorf("checking property uniqueness: %w", err)
		}
		if dup {
			return fmt.Errorf("%w: property (%s, %s, %s)", types.ErrUniquenessViolation, entityID, lang, key)
		}
	}

	_, err = t.exec(ctx, `
		INSERT INTO properties (entity_id, entity_type, language, key, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, language, key) DO UPDATE SET value = excluded.value`,
		entityID, entityType, lang, key, value)
	if err != nil {
		return fmt.Errorf("writing property (%s, %s, %s): %w", entityID, lang, key, err)
	}
	t.touch(types.CollectionProperties, entityID)
	return nil
}

// DeleteProperty removes one triple. Returns false if it did not exist.
func (t *Tx) DeleteProperty(ctx context.Context, entityID, language, key string) (bool, error) {
	if err := t.require(types.CollectionProperties); err != nil {
		return false, err
	}
	lang, err := types.CanonicalLanguage(language)
	if err != nil {
		return false, err
	}
	res, err := t.exec(ctx,
		"DELETE FROM properties WHERE entity_id = ? AND language = ? AND key = ?",
		entityID, lang, key)
	if err != nil {
		return false, fmt.Errorf("deleting property: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.touch(types.CollectionProperties, entityID)
	}
	return n > 0, nil
}

// entityExists checks the row behind an overlay-carrying entity.
func (t *Tx) entityExists(ctx context.Context, entityType, entityID string) (bool, error) {
	var query string
	switch entityType {
	case types.EntityBinder:
		query = "SELECT 1 FROM binders WHERE binder_id = ?"
	case types.EntityCategory:
		query = "SELECT 1 FROM categories WHERE category_id = ?"
	case types.EntityPictogram:
		query = "SELECT 1 FROM pictograms WHERE pictogram_id = ?"
	default:
		return false, fmt.Errorf("%w: %q carries no properties", types.ErrUnknownEntity, entityType)
	}
	ok, err := t.exists(ctx, query, entityID)
	if err != nil {
		return false, fmt.Errorf("checking %s %s: %w", entityType, entityID, err)
	}
	return ok, nil
}
