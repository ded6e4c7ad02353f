package integrity

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/internal/audit"
	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// AssignCategory adds the category to pictogram edge. Both must exist and
// the edge must be new.
func AssignCategory(ctx context.Context, tx *sqlite.Tx, categoryID, pictogramID string) error {
	if err := tx.InsertCategoryPictogram(ctx, categoryID, pictogramID); err != nil {
		return err
	}
	return recordEdge(ctx, tx, types.ActionAssign, categoryID, pictogramID)
}

// UnassignCategory removes the edge; ErrNotFound if it does not exist.
func UnassignCategory(ctx context.Context, tx *sqlite.Tx, categoryID, pictogramID string) error {
	ok, err := tx.DeleteCategoryPictogram(ctx, categoryID, pictogramID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: pictogram %s is not in category %s", types.ErrNotFound, pictogramID, categoryID)
	}
	return recordEdge(ctx, tx, types.ActionUnassign, categoryID, pictogramID)
}

// SetPictogramCategories adds and removes edges so the pictogram belongs to
// exactly categoryIDs.
func SetPictogramCategories(ctx context.Context, tx *sqlite.Tx, pictogramID string, categoryIDs []string) error {
	p, err := tx.GetPictogram(ctx, pictogramID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: pictogram %s", types.ErrNotFound, pictogramID)
	}
	add, remove := diffSets(p.Categories, categoryIDs)
	for _, cid := range remove {
		if err := UnassignCategory(ctx, tx, cid, pictogramID); err != nil {
			return err
		}
	}
	for _, cid := range add {
		if err := AssignCategory(ctx, tx, cid, pictogramID); err != nil {
			return err
		}
	}
	return nil
}

// SetCategoryPictograms adds and removes edges so the category holds
// exactly pictogramIDs.
func SetCategoryPictograms(ctx context.Context, tx *sqlite.Tx, categoryID string, pictogramIDs []string) error {
	c, err := tx.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: category %s", types.ErrNotFound, categoryID)
	}
	add, remove := diffSets(c.Pictograms, pictogramIDs)
	for _, pid := range remove {
		if err := UnassignCategory(ctx, tx, categoryID, pid); err != nil {
			return err
		}
	}
	for _, pid := range add {
		if err := AssignCategory(ctx, tx, categoryID, pid); err != nil {
			return err
		}
	}
	return nil
}

// MovePictogram changes the pictogram's binder. Category edges are kept.
func MovePictogram(ctx context.Context, tx *sqlite.Tx, pictogramID, binderID string) error {
	from, err := tx.SetPictogramBinder(ctx, pictogramID, binderID)
	if err != nil {
		return err
	}
	if from == binderID {
		return nil
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: types.EntityPictogram,
		EntityID:   pictogramID,
		Action:     types.ActionMove,
		Changes:    map[string]types.FieldChange{"binder": {From: from, To: binderID}},
	})
}

// AddBinderUser shares the binder with the user.
func AddBinderUser(ctx context.Context, tx *sqlite.Tx, binderID, userID string) error {
	if err := tx.InsertBinderUser(ctx, binderID, userID); err != nil {
		return err
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: types.EntityBinder,
		EntityID:   binderID,
		Action:     types.ActionAssign,
		Changes:    map[string]types.FieldChange{"user": {To: userID}},
	})
}

// RemoveBinderUser unshares the binder; ErrNotFound if it was not shared.
func RemoveBinderUser(ctx context.Context, tx *sqlite.Tx, binderID, userID string) error {
	ok, err := tx.DeleteBinderUser(ctx, binderID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: binder %s is not shared with user %s", types.ErrNotFound, binderID, userID)
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: types.EntityBinder,
		EntityID:   binderID,
		Action:     types.ActionUnassign,
		Changes:    map[string]types.FieldChange{"user": {From: userID}},
	})
}

// SetBinderUsers adds and removes edges so the binder is shared with
// exactly userIDs.
func SetBinderUsers(ctx context.Context, tx *sqlite.Tx, binderID string, userIDs []string) error {
	have, err := tx.UserIDsForBinder(ctx, binderID)
	if err != nil {
		return err
	}
	if len(have) == 0 {
		b, err := tx.GetBinder(ctx, binderID)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: binder %s", types.ErrNotFound, binderID)
		}
	}
	add, remove := diffSets(have, userIDs)
	for _, uid := range remove {
		if err := RemoveBinderUser(ctx, tx, binderID, uid); err != nil {
			return err
		}
	}
	for _, uid := range add {
		if err := AddBinderUser(ctx, tx, binderID, uid); err != nil {
			return err
		}
	}
	return nil
}

// SetUserBinders adds and removes edges so the user is shared exactly the
// binders in binderIDs.
func SetUserBinders(ctx context.Context, tx *sqlite.Tx, userID string, binderIDs []string) error {
	u, err := tx.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: user %s", types.ErrNotFound, userID)
	}
	add, remove := diffSets(u.Binders, binderIDs)
	for _, bid := range remove {
		if err := RemoveBinderUser(ctx, tx, bid, userID); err != nil {
			return err
		}
	}
	for _, bid := range add {
		if err := AddBinderUser(ctx, tx, bid, userID); err != nil {
			return err
		}
	}
	return nil
}

// diffSets returns the members of want missing from have, and the members
// of have missing from want, each in input order.
func diffSets(have, want []string) (add, remove []string) {
	inHave := make(map[string]bool, len(have))
	for _, id := range have {
		inHave[id] = true
	}
	inWant := make(map[string]bool, len(want))
	for _, id := range want {
		if id == "" || inWant[id] {
			continue
		}
		inWant[id] = true
		if !inHave[id] {
			add = append(add, id)
		}
	}
	for _, id := range have {
		if !inWant[id] {
			remove = append(remove, id)
		}
	}
	return add, remove
}
