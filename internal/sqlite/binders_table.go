// This file implements the binders collection.
package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

const selectBinder = "SELECT binder_id, author, image, is_favorite FROM binders"

// InsertBinder creates a binder. An empty ID is replaced by a UUID v7; the
// assigned ID is written back to b.
func (t *Tx) InsertBinder(ctx context.Context, b *types.Binder) error {
	if err := t.require(types.CollectionBinders); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	props, err := b.Properties.Canonicalize()
	if err != nil {
		return err
	}
	if b.ID == "" {
		if b.ID, err = newID(); err != nil {
			return err
		}
	} else if dup, err := t.exists(ctx, "SELECT 1 FROM binders WHERE binder_id = ?", b.ID); err != nil {
		return fmt.Errorf("checking binder id: %w", err)
	} else if dup {
		return fmt.Errorf("%w: binder %s exists", types.ErrUniquenessViolation, b.ID)
	}

	if _, err := t.exec(ctx,
		"INSERT INTO binders (binder_id, author, image, is_favorite) VALUES (?, ?, ?, ?)",
		b.ID, b.Author, b.Image, boolToInt(b.IsFavorite)); err != nil {
		return fmt.Errorf("inserting binder: %w", err)
	}
	if err := t.replaceProperties(ctx, types.EntityBinder, b.ID, props); err != nil {
		return err
	}
	b.Properties = props
	t.touch(types.CollectionBinders, b.ID)
	return nil
}

// GetBinder returns the binder with its overlay and derived pictogram and
// user lists, or nil if it does not exist.
func (t *Tx) GetBinder(ctx context.Context, id string) (*types.Binder, error) {
	if id == "" {
		return nil, nil
	}
	var b types.Binder
	var fav int
	found, err := t.queryRow(ctx, selectBinder+" WHERE binder_id = ?", []any{id},
		&b.ID, &b.Author, &b.Image, &fav)
	if err != nil {
		return nil, fmt.Errorf("getting binder %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	b.IsFavorite = fav != 0
	if err := t.hydrateBinder(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBinders returns every binder ordered by ID (creation order).
func (t *Tx) ListBinders(ctx context.Context) ([]*types.Binder, error) {
	return t.listBinders(ctx, selectBinder+" ORDER BY binder_id")
}

// ListBindersByAuthor returns the binders whose author is author.
func (t *Tx) ListBindersByAuthor(ctx context.Context, author string) ([]*types.Binder, error) {
	return t.listBinders(ctx, selectBinder+" WHERE author = ? ORDER BY binder_id", author)
}

func (t *Tx) listBinders(ctx context.Context, query string, args ...any) ([]*types.Binder, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing binders: %w", err)
	}
	binders := []*types.Binder{}
	for rows.Next() {
		var b types.Binder
		var fav int
		if err := rows.Scan(&b.ID, &b.Author, &b.Image, &fav); err != nil {
			rows.Close()
			return nil, storageError("scanning binder", err)
		}
		b.IsFavorite = fav != 0
		binders = append(binders, &b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageError("iterating binders", err)
	}

	for _, b := range binders {
		if err := t.hydrateBinder(ctx, b); err != nil {
			return nil, err
		}
	}
	return binders, nil
}

func (t *Tx) hydrateBinder(ctx context.Context, b *types.Binder) error {
	var err error
	if b.Properties, err = t.LoadProperties(ctx, b.ID); err != nil {
		return err
	}
	if b.Pictograms, err = t.PictogramIDsByBinder(ctx, b.ID); err != nil {
		return err
	}
	if b.Users, err = t.UserIDsForBinder(ctx, b.ID); err != nil {
		return err
	}
	return nil
}

// UpdateBinder replaces the scalar fields and overlay of an existing binder.
// Pictograms and Users are ignored; they change through the engine.
func (t *Tx) UpdateBinder(ctx context.Context, b *types.Binder) error {
	if err := t.require(types.CollectionBinders); err != nil {
		return err
	}
	if b.ID == "" {
		return types.ErrInvalidID
	}
	if err := b.Validate(); err != nil {
		return err
	}
	props, err := b.Properties.Canonicalize()
	if err != nil {
		return err
	}
	res, err := t.exec(ctx,
		"UPDATE binders SET author = ?, image = ?, is_favorite = ? WHERE binder_id = ?",
		b.Author, b.Image, boolToInt(b.IsFavorite), b.ID)
	if err != nil {
		return fmt.Errorf("updating binder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: binder %s", types.ErrNotFound, b.ID)
	}
	if err := t.replaceProperties(ctx, types.EntityBinder, b.ID, props); err != nil {
		return err
	}
	b.Properties = props
	t.touch(types.CollectionBinders, b.ID)
	return nil
}

// DeleteBinderRow removes the binder row and its overlay. It does not
// cascade; pictograms still referencing the binder make it fail with
// ErrNotFound from the foreign key. Returns false if the row did not exist.
func (t *Tx) DeleteBinderRow(ctx context.Context, id string) (bool, error) {
	if err := t.require(types.CollectionBinders); err != nil {
		return false, err
	}
	if err := t.deleteProperties(ctx, id); err != nil {
		return false, err
	}
	res, err := t.exec(ctx, "DELETE FROM binders WHERE binder_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting binder %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.touch(types.CollectionBinders, id)
	}
	return n > 0, nil
}
