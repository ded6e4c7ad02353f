package board

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/internal/audit"
	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// AddTranslation stores one overlay value on a binder, category or
// pictogram. It fails with ErrUniquenessViolation when language and key
// already have a value.
func (bd *Board) AddTranslation(ctx context.Context, entityType, id, language, key, value string) error {
	return bd.writeTranslation(ctx, entityType, id, language, key, value, false)
}

// SetTranslation stores or replaces one overlay value.
func (bd *Board) SetTranslation(ctx context.Context, entityType, id, language, key, value string) error {
	return bd.writeTranslation(ctx, entityType, id, language, key, value, true)
}

func (bd *Board) writeTranslation(ctx context.Context, entityType, id, language, key, value string, replace bool) error {
	lang, err := translationTarget(entityType, language)
	if err != nil {
		return fmt.Errorf("setting translation: %w", err)
	}
	err = bd.write(ctx, func(tx *sqlite.Tx) error {
		before, err := tx.LoadProperties(ctx, id)
		if err != nil {
			return err
		}
		if replace {
			err = tx.SetProperty(ctx, entityType, id, lang, key, value)
		} else {
			err = tx.AddProperty(ctx, entityType, id, lang, key, value)
		}
		if err != nil {
			return err
		}
		old, _ := before.Get(lang, key)
		return recordTranslation(ctx, tx, entityType, id, lang, key, old, value)
	})
	if err != nil {
		return fmt.Errorf("setting translation: %w", err)
	}
	return nil
}

// DeleteTranslation removes one overlay value. ErrNotFound if it was never
// set.
func (bd *Board) DeleteTranslation(ctx context.Context, entityType, id, language, key string) error {
	lang, err := translationTarget(entityType, language)
	if err != nil {
		return fmt.Errorf("deleting translation: %w", err)
	}
	err = bd.write(ctx, func(tx *sqlite.Tx) error {
		before, err := tx.LoadProperties(ctx, id)
		if err != nil {
			return err
		}
		old, _ := before.Get(lang, key)
		deleted, err := tx.DeleteProperty(ctx, id, lang, key)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("%w: %s %s has no %s %s", types.ErrNotFound, entityType, id, lang, key)
		}
		return recordTranslation(ctx, tx, entityType, id, lang, key, old, "")
	})
	if err != nil {
		return fmt.Errorf("deleting translation: %w", err)
	}
	return nil
}

// translationTarget checks that entityType carries an overlay and returns
// the canonical language tag.
func translationTarget(entityType, language string) (string, error) {
	switch entityType {
	case types.EntityBinder, types.EntityCategory, types.EntityPictogram:
	default:
		return "", fmt.Errorf("%q carries no translations: %w", entityType, types.ErrUnknownEntity)
	}
	return types.CanonicalLanguage(language)
}

func recordTranslation(ctx context.Context, tx *sqlite.Tx, entityType, id, lang, key, from, to string) error {
	if from == to {
		return nil
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: entityType,
		EntityID:   id,
		Action:     types.ActionUpdate,
		Changes:    map[string]types.FieldChange{"properties." + lang + "." + key: {From: from, To: to}},
	})
}
