// This file implements the pictograms collection. Pictogram.Categories is
// derived from the category_pictograms edge set.
package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

const selectPictogram = "SELECT pictogram_id, binder_id, image, sound, is_favorite, ord FROM pictograms"

// InsertPictogram creates a pictogram in an existing binder together with
// the edges named in p.Categories. Every listed category must exist.
func (t *Tx) InsertPictogram(ctx context.Context, p *types.Pictogram) error {
	if err := t.require(types.CollectionPictograms); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	props, err := p.Properties.Canonicalize()
	if err != nil {
		return err
	}
	ok, err := t.exists(ctx, "SELECT 1 FROM binders WHERE binder_id = ?", p.Binder)
	if err != nil {
		return fmt.Errorf("checking binder: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: binder %s", types.ErrNotFound, p.Binder)
	}
	if p.ID == "" {
		if p.ID, err = newID(); err != nil {
			return err
		}
	} else if dup, err := t.exists(ctx, "SELECT 1 FROM pictograms WHERE pictogram_id = ?", p.ID); err != nil {
		return fmt.Errorf("checking pictogram id: %w", err)
	} else if dup {
		return fmt.Errorf("%w: pictogram %s exists", types.ErrUniquenessViolation, p.ID)
	}

	if _, err := t.exec(ctx,
		"INSERT INTO pictograms (pictogram_id, binder_id, image, sound, is_favorite, ord) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.Binder, p.Image, p.Sound, boolToInt(p.IsFavorite), p.Order); err != nil {
		return fmt.Errorf("inserting pictogram: %w", err)
	}
	if err := t.replaceProperties(ctx, types.EntityPictogram, p.ID, props); err != nil {
		return err
	}
	for _, cid := range dedupe(p.Categories) {
		if err := t.InsertCategoryPictogram(ctx, cid, p.ID); err != nil {
			return err
		}
	}
	p.Properties = props
	t.touch(types.CollectionPictograms, p.ID, p.Binder)
	return nil
}

// GetPictogram returns the pictogram with its overlay and derived category
// list, or nil if it does not exist.
func (t *Tx) GetPictogram(ctx context.Context, id string) (*types.Pictogram, error) {
	if id == "" {
		return nil, nil
	}
	var p types.Pictogram
	var fav int
	found, err := t.queryRow(ctx, selectPictogram+" WHERE pictogram_id = ?", []any{id},
		&p.ID, &p.Binder, &p.Image, &p.Sound, &fav, &p.Order)
	if err != nil {
		return nil, fmt.Errorf("getting pictogram %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	p.IsFavorite = fav != 0
	if err := t.hydratePictogram(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPictograms returns every pictogram ordered by ID.
func (t *Tx) ListPictograms(ctx context.Context) ([]*types.Pictogram, error) {
	return t.listPictograms(ctx, selectPictogram+" ORDER BY pictogram_id")
}

// ListPictogramsByBinder returns the binder's pictograms in display order.
func (t *Tx) ListPictogramsByBinder(ctx context.Context, binderID string) ([]*types.Pictogram, error) {
	return t.listPictograms(ctx,
		selectPictogram+" WHERE binder_id = ? ORDER BY ord, pictogram_id", binderID)
}

// PictogramIDsByBinder returns the binder's pictogram IDs in display order.
func (t *Tx) PictogramIDsByBinder(ctx context.Context, binderID string) ([]string, error) {
	ids, err := t.queryStrings(ctx,
		"SELECT pictogram_id FROM pictograms WHERE binder_id = ? ORDER BY ord, pictogram_id", binderID)
	if err != nil {
		return nil, fmt.Errorf("listing pictograms of binder %s: %w", binderID, err)
	}
	return ids, nil
}

func (t *Tx) listPictograms(ctx context.Context, query string, args ...any) ([]*types.Pictogram, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pictograms: %w", err)
	}
	pictograms := []*types.Pictogram{}
	for rows.Next() {
		var p types.Pictogram
		var fav int
		if err := rows.Scan(&p.ID, &p.Binder, &p.Image, &p.Sound, &fav, &p.Order); err != nil {
			rows.Close()
			return nil, storageError("scanning pictogram", err)
		}
		p.IsFavorite = fav != 0
		pictograms = append(pictograms, &p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageError("iterating pictograms", err)
	}

	for _, p := range pictograms {
		if err := t.hydratePictogram(ctx, p); err != nil {
			return nil, err
		}
	}
	return pictograms, nil
}

func (t *Tx) hydratePictogram(ctx context.Context, p *types.Pictogram) error {
	var err error
	if p.Properties, err = t.LoadProperties(ctx, p.ID); err != nil {
		return err
	}
	if p.Categories, err = t.CategoryIDsForPictogram(ctx, p.ID); err != nil {
		return err
	}
	return nil
}

// UpdatePictogram replaces the scalar fields and overlay. Binder and
// Categories are ignored; use SetPictogramBinder and the edge primitives.
func (t *Tx) UpdatePictogram(ctx context.Context, p *types.Pictogram) error {
	if err := t.require(types.CollectionPictograms); err != nil {
		return err
	}
	if p.ID == "" {
		return types.ErrInvalidID
	}
	if p.Order < 0 {
		return fmt.Errorf("%w: pictogram order must not be negative", types.ErrValidation)
	}
	props, err := p.Properties.Canonicalize()
	if err != nil {
		return err
	}
	var binderID string
	found, err := t.queryRow(ctx, "SELECT binder_id FROM pictograms WHERE pictogram_id = ?",
		[]any{p.ID}, &binderID)
	if err != nil {
		return fmt.Errorf("updating pictogram: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: pictogram %s", types.ErrNotFound, p.ID)
	}
	if _, err := t.exec(ctx,
		"UPDATE pictograms SET image = ?, sound = ?, is_favorite = ?, ord = ? WHERE pictogram_id = ?",
		p.Image, p.Sound, boolToInt(p.IsFavorite), p.Order, p.ID); err != nil {
		return fmt.Errorf("updating pictogram: %w", err)
	}
	if err := t.replaceProperties(ctx, types.EntityPictogram, p.ID, props); err != nil {
		return err
	}
	p.Binder = binderID
	p.Properties = props
	t.touch(types.CollectionPictograms, p.ID, binderID)
	return nil
}

// SetPictogramBinder moves a pictogram to another existing binder and
// returns the binder it left.
func (t *Tx) SetPictogramBinder(ctx context.Context, pictogramID, binderID string) (string, error) {
	if err := t.require(types.CollectionPictograms); err != nil {
		return "", err
	}
	var from string
	found, err := t.queryRow(ctx, "SELECT binder_id FROM pictograms WHERE pictogram_id = ?",
		[]any{pictogramID}, &from)
	if err != nil {
		return "", fmt.Errorf("moving pictogram: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w: pictogram %s", types.ErrNotFound, pictogramID)
	}
	ok, err := t.exists(ctx, "SELECT 1 FROM binders WHERE binder_id = ?", binderID)
	if err != nil {
		return "", fmt.Errorf("checking binder: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: binder %s", types.ErrNotFound, binderID)
	}
	if from == binderID {
		return from, nil
	}
	if _, err := t.exec(ctx, "UPDATE pictograms SET binder_id = ? WHERE pictogram_id = ?",
		binderID, pictogramID); err != nil {
		return "", fmt.Errorf("moving pictogram: %w", err)
	}
	t.touch(types.CollectionPictograms, pictogramID, from, binderID)
	return from, nil
}

// DeletePictogramRow removes the pictogram row and its overlay. Edges must
// already be gone. Returns false if the row did not exist.
func (t *Tx) DeletePictogramRow(ctx context.Context, id string) (bool, error) {
	if err := t.require(types.CollectionPictograms); err != nil {
		return false, err
	}
	var binderID string
	found, err := t.queryRow(ctx, "SELECT binder_id FROM pictograms WHERE pictogram_id = ?",
		[]any{id}, &binderID)
	if err != nil {
		return false, fmt.Errorf("deleting pictogram %s: %w", id, err)
	}
	if !found {
		return false, nil
	}
	if err := t.deleteProperties(ctx, id); err != nil {
		return false, err
	}
	if _, err := t.exec(ctx, "DELETE FROM pictograms WHERE pictogram_id = ?", id); err != nil {
		return false, fmt.Errorf("deleting pictogram %s: %w", id, err)
	}
	t.touch(types.CollectionPictograms, id, binderID)
	return true, nil
}
