package integrity

import (
	"context"

	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// CategoriesFromBinder collects the distinct categories referenced by the
// binder's pictograms. An unknown binder yields an empty list.
func CategoriesFromBinder(ctx context.Context, tx *sqlite.Tx, binderID string) ([]*types.Category, error) {
	ids, err := tx.PictogramIDsByBinder(ctx, binderID)
	if err != nil {
		return nil, err
	}
	return categoriesFor(ctx, tx, ids)
}

// CategoriesFromPictograms collects the distinct categories holding any of
// the pictograms. Membership is read from the edge set, not from the
// Categories field of the arguments, which may be stale.
func CategoriesFromPictograms(ctx context.Context, tx *sqlite.Tx, pictograms []*types.Pictogram) ([]*types.Category, error) {
	ids := make([]string, 0, len(pictograms))
	for _, p := range pictograms {
		if p != nil {
			ids = append(ids, p.ID)
		}
	}
	return categoriesFor(ctx, tx, ids)
}

func categoriesFor(ctx context.Context, tx *sqlite.Tx, pictogramIDs []string) ([]*types.Category, error) {
	categoryIDs, err := tx.CategoryIDsForPictograms(ctx, pictogramIDs)
	if err != nil {
		return nil, err
	}
	return tx.CategoriesByIDs(ctx, categoryIDs)
}
