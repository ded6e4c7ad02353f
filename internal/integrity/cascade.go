package integrity

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/internal/audit"
	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// DeleteCategory removes every edge of the category one at a time, then the
// category row. Pictograms themselves are kept.
func DeleteCategory(ctx context.Context, tx *sqlite.Tx, id string) error {
	c, err := tx.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: category %s", types.ErrNotFound, id)
	}
	for _, pid := range c.Pictograms {
		if _, err := tx.DeleteCategoryPictogram(ctx, id, pid); err != nil {
			return fmt.Errorf("unlinking pictogram %s: %w", pid, err)
		}
		if err := recordEdge(ctx, tx, types.ActionUnassign, id, pid); err != nil {
			return err
		}
	}
	if _, err := tx.DeleteCategoryRow(ctx, id); err != nil {
		return err
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: types.EntityCategory,
		EntityID:   id,
		Action:     types.ActionDelete,
		Changes:    audit.Diff(c.AuditFields(), nil),
	})
}

// DeletePictogram removes every edge of the pictogram one at a time, then
// the pictogram row.
func DeletePictogram(ctx context.Context, tx *sqlite.Tx, id string) error {
	p, err := tx.GetPictogram(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: pictogram %s", types.ErrNotFound, id)
	}
	return deletePictogram(ctx, tx, p)
}

func deletePictogram(ctx context.Context, tx *sqlite.Tx, p *types.Pictogram) error {
	for _, cid := range p.Categories {
		if _, err := tx.DeleteCategoryPictogram(ctx, cid, p.ID); err != nil {
			return fmt.Errorf("unlinking category %s: %w", cid, err)
		}
		if err := recordEdge(ctx, tx, types.ActionUnassign, cid, p.ID); err != nil {
			return err
		}
	}
	if _, err := tx.DeletePictogramRow(ctx, p.ID); err != nil {
		return err
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: types.EntityPictogram,
		EntityID:   p.ID,
		Action:     types.ActionDelete,
		Changes:    audit.Diff(p.AuditFields(), nil),
	})
}

// DeleteBinder deletes every pictogram of the binder through the pictogram
// cascade, drops its user edges, then deletes the binder row. It returns the
// number of pictograms removed. Categories are never deleted.
func DeleteBinder(ctx context.Context, tx *sqlite.Tx, id string) (int, error) {
	b, err := tx.GetBinder(ctx, id)
	if err != nil {
		return 0, err
	}
	if b == nil {
		return 0, fmt.Errorf("%w: binder %s", types.ErrNotFound, id)
	}
	pictograms, err := tx.ListPictogramsByBinder(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, p := range pictograms {
		if err := deletePictogram(ctx, tx, p); err != nil {
			return 0, fmt.Errorf("cascading to pictogram %s: %w", p.ID, err)
		}
	}
	for _, uid := range b.Users {
		if _, err := tx.DeleteBinderUser(ctx, id, uid); err != nil {
			return 0, fmt.Errorf("unsharing with user %s: %w", uid, err)
		}
	}
	if _, err := tx.DeleteBinderRow(ctx, id); err != nil {
		return 0, err
	}
	err = audit.Record(ctx, tx, audit.Entry{
		EntityType: types.EntityBinder,
		EntityID:   id,
		Action:     types.ActionDelete,
		Changes:    audit.Diff(b.AuditFields(), nil),
	})
	return len(pictograms), err
}

// DeleteUser drops the user's binder edges, then the user row. Binders the
// user authored are kept.
func DeleteUser(ctx context.Context, tx *sqlite.Tx, id string) error {
	u, err := tx.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: user %s", types.ErrNotFound, id)
	}
	for _, bid := range u.Binders {
		if _, err := tx.DeleteBinderUser(ctx, bid, id); err != nil {
			return fmt.Errorf("unsharing binder %s: %w", bid, err)
		}
	}
	if _, err := tx.DeleteUserRow(ctx, id); err != nil {
		return err
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: types.EntityUser,
		EntityID:   id,
		Action:     types.ActionDelete,
		Changes:    audit.Diff(u.AuditFields(), nil),
	})
}

// recordEdge logs an edge change against the pictogram.
func recordEdge(ctx context.Context, tx *sqlite.Tx, action, categoryID, pictogramID string) error {
	change := types.FieldChange{To: categoryID}
	if action == types.ActionUnassign {
		change = types.FieldChange{From: categoryID}
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: types.EntityPictogram,
		EntityID:   pictogramID,
		Action:     action,
		Changes:    map[string]types.FieldChange{"category": change},
	})
}
