// This file implements the categories collection. Category.Pictograms is
// derived from the category_pictograms edge set.
package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

const selectCategory = "SELECT category_id, image FROM categories"

// InsertCategory creates a category and the edges named in c.Pictograms.
// Every listed pictogram must exist.
func (t *Tx) InsertCategory(ctx context.Context, c *types.Category) error {
	if err := t.require(types.CollectionCategories); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	props, err := c.Properties.Canonicalize()
	if err != nil {
		return err
	}
	if c.ID == "" {
		if c.ID, err = newID(); err != nil {
			return err
		}
	} else if dup, err := t.exists(ctx, "SELECT 1 FROM categories WHERE category_id = ?", c.ID); err != nil {
		return fmt.Errorf("checking category id: %w", err)
	} else if dup {
		return fmt.Errorf("%w: category %s exists", types.ErrUniquenessViolation, c.ID)
	}

	if _, err := t.exec(ctx,
		"INSERT INTO categories (category_id, image) VALUES (?, ?)", c.ID, c.Image); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	if err := t.replaceProperties(ctx, types.EntityCategory, c.ID, props); err != nil {
		return err
	}
	for _, pid := range dedupe(c.Pictograms) {
		if err := t.InsertCategoryPictogram(ctx, c.ID, pid); err != nil {
			return err
		}
	}
	c.Properties = props
	t.touch(types.CollectionCategories, c.ID)
	return nil
}

// GetCategory returns the category with its overlay and derived pictogram
// list, or nil if it does not exist.
func (t *Tx) GetCategory(ctx context.Context, id string) (*types.Category, error) {
	if id == "" {
		return nil, nil
	}
	var c types.Category
	found, err := t.queryRow(ctx, selectCategory+" WHERE category_id = ?", []any{id}, &c.ID, &c.Image)
	if err != nil {
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	if err := t.hydrateCategory(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns every category ordered by ID (creation order).
func (t *Tx) ListCategories(ctx context.Context) ([]*types.Category, error) {
	return t.listCategories(ctx, selectCategory+" ORDER BY category_id")
}

// CategoriesByIDs fetches the named categories ordered by ID. Missing IDs
// are skipped.
func (t *Tx) CategoriesByIDs(ctx context.Context, ids []string) ([]*types.Category, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []*types.Category{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return t.listCategories(ctx,
		selectCategory+" WHERE category_id IN ("+placeholders(len(ids))+") ORDER BY category_id", args...)
}

func (t *Tx) listCategories(ctx context.Context, query string, args ...any) ([]*types.Category, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories := []*types.Category{}
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Image); err != nil {
			rows.Close()
			return nil, storageError("scanning category", err)
		}
		categories = append(categories, &c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageError("iterating categories", err)
	}

	for _, c := range categories {
		if err := t.hydrateCategory(ctx, c); err != nil {
			return nil, err
		}
	}
	return categories, nil
}

func (t *Tx) hydrateCategory(ctx context.Context, c *types.Category) error {
	var err error
	if c.Properties, err = t.LoadProperties(ctx, c.ID); err != nil {
		return err
	}
	if c.Pictograms, err = t.PictogramIDsForCategory(ctx, c.ID); err != nil {
		return err
	}
	return nil
}

// UpdateCategory replaces the scalar fields and overlay of an existing
// category. Pictograms is ignored; membership changes through the engine.
func (t *Tx) UpdateCategory(ctx context.Context, c *types.Category) error {
	if err := t.require(types.CollectionCategories); err != nil {
		return err
	}
	if c.ID == "" {
		return types.ErrInvalidID
	}
	if err := c.Validate(); err != nil {
		return err
	}
	props, err := c.Properties.Canonicalize()
	if err != nil {
		return err
	}
	res, err := t.exec(ctx, "UPDATE categories SET image = ? WHERE category_id = ?", c.Image, c.ID)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: category %s", types.ErrNotFound, c.ID)
	}
	if err := t.replaceProperties(ctx, types.EntityCategory, c.ID, props); err != nil {
		return err
	}
	c.Properties = props
	t.touch(types.CollectionCategories, c.ID)
	return nil
}

// DeleteCategoryRow removes the category row and its overlay. Edges must
// already be gone. Returns false if the row did not exist.
func (t *Tx) DeleteCategoryRow(ctx context.Context, id string) (bool, error) {
	if err := t.require(types.CollectionCategories); err != nil {
		return false, err
	}
	if err := t.deleteProperties(ctx, id); err != nil {
		return false, err
	}
	res, err := t.exec(ctx, "DELETE FROM categories WHERE category_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting category %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.touch(types.CollectionCategories, id)
	}
	return n > 0, nil
}

// dedupe returns ids without repeats, keeping first occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
