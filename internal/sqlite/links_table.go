// This file implements the two canonical edge sets: category_pictograms
// (Category.Pictograms and Pictogram.Categories) and binder_users
// (Binder.Users and User.Binders). Both list views are derived from these
// rows on read.
package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// InsertCategoryPictogram adds one category to pictogram edge. Both ends
// must exist and the edge must be new.
func (t *Tx) InsertCategoryPictogram(ctx context.Context, categoryID, pictogramID string) error {
	if err := t.require(types.CollectionCategoryPictograms); err != nil {
		return err
	}
	ok, err := t.exists(ctx, "SELECT 1 FROM categories WHERE category_id = ?", categoryID)
	if err != nil {
		return fmt.Errorf("checking category: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: category %s", types.ErrNotFound, categoryID)
	}
	var binderID string
	found, err := t.queryRow(ctx, "SELECT binder_id FROM pictograms WHERE pictogram_id = ?",
		[]any{pictogramID}, &binderID)
	if err != nil {
		return fmt.Errorf("checking pictogram: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: pictogram %s", types.ErrNotFound, pictogramID)
	}
	dup, err := t.exists(ctx,
		"SELECT 1 FROM category_pictograms WHERE category_id = ? AND pictogram_id = ?",
		categoryID, pictogramID)
	if err != nil {
		return fmt.Errorf("checking edge: %w", err)
	}
	if dup {
		return fmt.Errorf("%w: pictogram %s already in category %s",
			types.ErrUniquenessViolation, pictogramID, categoryID)
	}
	if _, err := t.exec(ctx,
		"INSERT INTO category_pictograms (category_id, pictogram_id) VALUES (?, ?)",
		categoryID, pictogramID); err != nil {
		return fmt.Errorf("inserting edge: %w", err)
	}
	t.touch(types.CollectionCategoryPictograms, categoryID, pictogramID, binderID)
	return nil
}

// DeleteCategoryPictogram removes one edge. Returns false if it did not
// exist.
func (t *Tx) DeleteCategoryPictogram(ctx context.Context, categoryID, pictogramID string) (bool, error) {
	if err := t.require(types.CollectionCategoryPictograms); err != nil {
		return false, err
	}
	var binderID string
	if _, err := t.queryRow(ctx, "SELECT binder_id FROM pictograms WHERE pictogram_id = ?",
		[]any{pictogramID}, &binderID); err != nil {
		return false, fmt.Errorf("checking pictogram: %w", err)
	}
	res, err := t.exec(ctx,
		"DELETE FROM category_pictograms WHERE category_id = ? AND pictogram_id = ?",
		categoryID, pictogramID)
	if err != nil {
		return false, fmt.Errorf("deleting edge: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.touch(types.CollectionCategoryPictograms, categoryID, pictogramID, binderID)
	}
	return n > 0, nil
}

// CategoryIDsForPictogram returns the categories holding the pictogram,
// ordered by category ID.
func (t *Tx) CategoryIDsForPictogram(ctx context.Context, pictogramID string) ([]string, error) {
	ids, err := t.queryStrings(ctx,
		"SELECT category_id FROM category_pictograms WHERE pictogram_id = ? ORDER BY category_id",
		pictogramID)
	if err != nil {
		return nil, fmt.Errorf("listing categories of pictogram %s: %w", pictogramID, err)
	}
	return ids, nil
}

// PictogramIDsForCategory returns the category's pictograms ordered by
// pictogram ID.
func (t *Tx) PictogramIDsForCategory(ctx context.Context, categoryID string) ([]string, error) {
	ids, err := t.queryStrings(ctx,
		"SELECT pictogram_id FROM category_pictograms WHERE category_id = ? ORDER BY pictogram_id",
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing pictograms of category %s: %w", categoryID, err)
	}
	return ids, nil
}

// CategoryIDsForPictograms returns the distinct categories holding any of
// the pictograms, ordered by category ID.
func (t *Tx) CategoryIDsForPictograms(ctx context.Context, pictogramIDs []string) ([]string, error) {
	pictogramIDs = dedupe(pictogramIDs)
	if len(pictogramIDs) == 0 {
		return []string{}, nil
	}
	args := make([]any, len(pictogramIDs))
	for i, id := range pictogramIDs {
		args[i] = id
	}
	ids, err := t.queryStrings(ctx,
		"SELECT DISTINCT category_id FROM category_pictograms WHERE pictogram_id IN ("+
			placeholders(len(args))+") ORDER BY category_id", args...)
	if err != nil {
		return nil, fmt.Errorf("listing categories of pictograms: %w", err)
	}
	return ids, nil
}

// InsertBinderUser shares a binder with a user. Both must exist and the
// edge must be new.
func (t *Tx) InsertBinderUser(ctx context.Context, binderID, userID string) error {
	if err := t.require(types.CollectionBinderUsers); err != nil {
		return err
	}
	ok, err := t.exists(ctx, "SELECT 1 FROM binders WHERE binder_id = ?", binderID)
	if err != nil {
		return fmt.Errorf("checking binder: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: binder %s", types.ErrNotFound, binderID)
	}
	ok, err = t.exists(ctx, "SELECT 1 FROM users WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: user %s", types.ErrNotFound, userID)
	}
	dup, err := t.exists(ctx,
		"SELECT 1 FROM binder_users WHERE binder_id = ? AND user_id = ?", binderID, userID)
	if err != nil {
		return fmt.Errorf("checking edge: %w", err)
	}
	if dup {
		return fmt.Errorf("%w: user %s already on binder %s",
			types.ErrUniquenessViolation, userID, binderID)
	}
	if _, err := t.exec(ctx,
		"INSERT INTO binder_users (binder_id, user_id) VALUES (?, ?)", binderID, userID); err != nil {
		return fmt.Errorf("inserting edge: %w", err)
	}
	t.touch(types.CollectionBinderUsers, binderID, userID)
	return nil
}

// DeleteBinderUser removes one binder to user edge. Returns false if it
// did not exist.
func (t *Tx) DeleteBinderUser(ctx context.Context, binderID, userID string) (bool, error) {
	if err := t.require(types.CollectionBinderUsers); err != nil {
		return false, err
	}
	res, err := t.exec(ctx,
		"DELETE FROM binder_users WHERE binder_id = ? AND user_id = ?", binderID, userID)
	if err != nil {
		return false, fmt.Errorf("deleting edge: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.touch(types.CollectionBinderUsers, binderID, userID)
	}
	return n > 0, nil
}

// UserIDsForBinder returns the users sharing the binder ordered by user ID.
func (t *Tx) UserIDsForBinder(ctx context.Context, binderID string) ([]string, error) {
	ids, err := t.queryStrings(ctx,
		"SELECT user_id FROM binder_users WHERE binder_id = ? ORDER BY user_id", binderID)
	if err != nil {
		return nil, fmt.Errorf("listing users of binder %s: %w", binderID, err)
	}
	return ids, nil
}

// BinderIDsForUser returns the binders shared with the user ordered by
// binder ID.
func (t *Tx) BinderIDsForUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := t.queryStrings(ctx,
		"SELECT binder_id FROM binder_users WHERE user_id = ? ORDER BY binder_id", userID)
	if err != nil {
		return nil, fmt.Errorf("listing binders of user %s: %w", userID, err)
	}
	return ids, nil
}
