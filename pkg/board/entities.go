package board

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/internal/audit"
	"github.com/mesh-intelligence/pictoboard/internal/integrity"
	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// write runs fn in one transaction over every entity collection. Entity
// writes may route through the engine, so they share its scope.
func (bd *Board) write(ctx context.Context, fn func(tx *sqlite.Tx) error) error {
	return bd.store.Write(ctx, integrity.Scope, fn)
}

func recordCreate(ctx context.Context, tx *sqlite.Tx, entityType, id string, fields map[string]string) error {
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: entityType,
		EntityID:   id,
		Action:     types.ActionCreate,
		Changes:    audit.Diff(nil, fields),
	})
}

// recordUpdate records only when a field changed.
func recordUpdate(ctx context.Context, tx *sqlite.Tx, entityType, id string, before, after map[string]string) error {
	changes := audit.Diff(before, after)
	if len(changes) == 0 {
		return nil
	}
	return audit.Record(ctx, tx, audit.Entry{
		EntityType: entityType,
		EntityID:   id,
		Action:     types.ActionUpdate,
		Changes:    changes,
	})
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// CreateBinder stores b under a fresh ID and returns it. b.Users, when set,
// shares the binder with those users in the same transaction.
func (bd *Board) CreateBinder(ctx context.Context, b *types.Binder) (string, error) {
	users := b.Users
	err := bd.write(ctx, func(tx *sqlite.Tx) error {
		b.ID = ""
		b.Pictograms, b.Users = nil, nil
		if err := tx.InsertBinder(ctx, b); err != nil {
			return err
		}
		if err := recordCreate(ctx, tx, types.EntityBinder, b.ID, b.AuditFields()); err != nil {
			return err
		}
		for _, uid := range uniqueIDs(users) {
			if err := integrity.AddBinderUser(ctx, tx, b.ID, uid); err != nil {
				return err
			}
		}
		b.Users = uniqueIDs(users)
		return nil
	})
	if err != nil {
		b.ID, b.Users = "", users
		return "", fmt.Errorf("creating binder: %w", err)
	}
	return b.ID, nil
}

// GetBinder returns the binder or nil if it does not exist.
func (bd *Board) GetBinder(ctx context.Context, id string) (b *types.Binder, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		b, err = tx.GetBinder(ctx, id)
		return err
	})
	return b, err
}

// ListBinders returns every binder, or only those by author when author is
// not empty.
func (bd *Board) ListBinders(ctx context.Context, author string) (binders []*types.Binder, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		if author != "" {
			binders, err = tx.ListBindersByAuthor(ctx, author)
		} else {
			binders, err = tx.ListBinders(ctx)
		}
		return err
	})
	return binders, err
}

// UpdateBinder replaces the binder's scalar fields and overlay. A non-nil
// b.Users becomes the exact set of users the binder is shared with;
// b.Pictograms is ignored.
func (bd *Board) UpdateBinder(ctx context.Context, b *types.Binder) error {
	err := bd.write(ctx, func(tx *sqlite.Tx) error {
		before, err := tx.GetBinder(ctx, b.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return fmt.Errorf("%w: binder %s", types.ErrNotFound, b.ID)
		}
		if err := tx.UpdateBinder(ctx, b); err != nil {
			return err
		}
		if err := recordUpdate(ctx, tx, types.EntityBinder, b.ID, before.AuditFields(), b.AuditFields()); err != nil {
			return err
		}
		if b.Users != nil {
			return integrity.SetBinderUsers(ctx, tx, b.ID, b.Users)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating binder: %w", err)
	}
	return nil
}

// CreateCategory stores c under a fresh ID and returns it. c.Pictograms,
// when set, assigns those pictograms in the same transaction.
func (bd *Board) CreateCategory(ctx context.Context, c *types.Category) (string, error) {
	members := c.Pictograms
	err := bd.write(ctx, func(tx *sqlite.Tx) error {
		c.ID = ""
		c.Pictograms = nil
		if err := tx.InsertCategory(ctx, c); err != nil {
			return err
		}
		if err := recordCreate(ctx, tx, types.EntityCategory, c.ID, c.AuditFields()); err != nil {
			return err
		}
		if err := integrity.SetCategoryPictograms(ctx, tx, c.ID, members); err != nil {
			return err
		}
		ids, err := tx.PictogramIDsForCategory(ctx, c.ID)
		c.Pictograms = ids
		return err
	})
	if err != nil {
		c.ID, c.Pictograms = "", members
		return "", fmt.Errorf("creating category: %w", err)
	}
	return c.ID, nil
}

// GetCategory returns the category or nil if it does not exist.
func (bd *Board) GetCategory(ctx context.Context, id string) (c *types.Category, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		c, err = tx.GetCategory(ctx, id)
		return err
	})
	return c, err
}

// ListCategories returns every category.
func (bd *Board) ListCategories(ctx context.Context) (categories []*types.Category, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		categories, err = tx.ListCategories(ctx)
		return err
	})
	return categories, err
}

// UpdateCategory replaces the category's image and overlay. A non-nil
// c.Pictograms becomes the exact member set.
func (bd *Board) UpdateCategory(ctx context.Context, c *types.Category) error {
	err := bd.write(ctx, func(tx *sqlite.Tx) error {
		before, err := tx.GetCategory(ctx, c.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return fmt.Errorf("%w: category %s", types.ErrNotFound, c.ID)
		}
		if err := tx.UpdateCategory(ctx, c); err != nil {
			return err
		}
		if err := recordUpdate(ctx, tx, types.EntityCategory, c.ID, before.AuditFields(), c.AuditFields()); err != nil {
			return err
		}
		if c.Pictograms != nil {
			return integrity.SetCategoryPictograms(ctx, tx, c.ID, c.Pictograms)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	return nil
}

// CreatePictogram stores p in p.Binder under a fresh ID and returns it.
// p.Categories, when set, assigns the pictogram to those categories in the
// same transaction.
func (bd *Board) CreatePictogram(ctx context.Context, p *types.Pictogram) (string, error) {
	categories := p.Categories
	err := bd.write(ctx, func(tx *sqlite.Tx) error {
		p.ID = ""
		p.Categories = nil
		if err := tx.InsertPictogram(ctx, p); err != nil {
			return err
		}
		if err := recordCreate(ctx, tx, types.EntityPictogram, p.ID, p.AuditFields()); err != nil {
			return err
		}
		if err := integrity.SetPictogramCategories(ctx, tx, p.ID, categories); err != nil {
			return err
		}
		ids, err := tx.CategoryIDsForPictogram(ctx, p.ID)
		p.Categories = ids
		return err
	})
	if err != nil {
		p.ID, p.Categories = "", categories
		return "", fmt.Errorf("creating pictogram: %w", err)
	}
	return p.ID, nil
}

// GetPictogram returns the pictogram or nil if it does not exist.
func (bd *Board) GetPictogram(ctx context.Context, id string) (p *types.Pictogram, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		p, err = tx.GetPictogram(ctx, id)
		return err
	})
	return p, err
}

// ListPictograms returns every pictogram, or only the binder's pictograms
// in display order when binderID is not empty.
func (bd *Board) ListPictograms(ctx context.Context, binderID string) (pictograms []*types.Pictogram, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		if binderID != "" {
			pictograms, err = tx.ListPictogramsByBinder(ctx, binderID)
		} else {
			pictograms, err = tx.ListPictograms(ctx)
		}
		return err
	})
	return pictograms, err
}

// UpdatePictogram replaces the pictogram's scalar fields and overlay. A
// changed p.Binder moves the pictogram; a non-nil p.Categories becomes the
// exact category set. Both run in the same transaction as the update.
func (bd *Board) UpdatePictogram(ctx context.Context, p *types.Pictogram) error {
	err := bd.write(ctx, func(tx *sqlite.Tx) error {
		before, err := tx.GetPictogram(ctx, p.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return fmt.Errorf("%w: pictogram %s", types.ErrNotFound, p.ID)
		}
		// tx.UpdatePictogram writes the stored binder back into p.
		target := p.Binder
		err = tx.UpdatePictogram(ctx, p)
		p.Binder = target
		if err != nil {
			return err
		}
		// The move is recorded by the engine; keep it out of the field diff.
		scalar := *p
		scalar.Binder = before.Binder
		if err := recordUpdate(ctx, tx, types.EntityPictogram, p.ID, before.AuditFields(), scalar.AuditFields()); err != nil {
			return err
		}
		if target != before.Binder {
			if err := integrity.MovePictogram(ctx, tx, p.ID, target); err != nil {
				return err
			}
		}
		if p.Categories != nil {
			return integrity.SetPictogramCategories(ctx, tx, p.ID, p.Categories)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating pictogram: %w", err)
	}
	return nil
}

// CreateUser stores u under a fresh ID and returns it. The email must be
// unique ignoring case. u.Binders, when set, shares those binders with the
// user in the same transaction.
func (bd *Board) CreateUser(ctx context.Context, u *types.User) (string, error) {
	binders := u.Binders
	err := bd.write(ctx, func(tx *sqlite.Tx) error {
		u.ID = ""
		u.Binders = nil
		if err := tx.InsertUser(ctx, u); err != nil {
			return err
		}
		if err := recordCreate(ctx, tx, types.EntityUser, u.ID, u.AuditFields()); err != nil {
			return err
		}
		if err := integrity.SetUserBinders(ctx, tx, u.ID, binders); err != nil {
			return err
		}
		ids, err := tx.BinderIDsForUser(ctx, u.ID)
		u.Binders = ids
		return err
	})
	if err != nil {
		u.ID, u.Binders = "", binders
		return "", fmt.Errorf("creating user: %w", err)
	}
	return u.ID, nil
}

// GetUser returns the user or nil if it does not exist.
func (bd *Board) GetUser(ctx context.Context, id string) (u *types.User, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		u, err = tx.GetUser(ctx, id)
		return err
	})
	return u, err
}

// UserByEmail looks a user up by email, ignoring case. Nil if none.
func (bd *Board) UserByEmail(ctx context.Context, email string) (u *types.User, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		u, err = tx.UserByEmail(ctx, email)
		return err
	})
	return u, err
}

// ListUsers returns every user.
func (bd *Board) ListUsers(ctx context.Context) (users []*types.User, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		users, err = tx.ListUsers(ctx)
		return err
	})
	return users, err
}

// UpdateUser replaces the user's fields. A non-nil u.Binders becomes the
// exact set of binders shared with the user.
func (bd *Board) UpdateUser(ctx context.Context, u *types.User) error {
	err := bd.write(ctx, func(tx *sqlite.Tx) error {
		before, err := tx.GetUser(ctx, u.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return fmt.Errorf("%w: user %s", types.ErrNotFound, u.ID)
		}
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		if err := recordUpdate(ctx, tx, types.EntityUser, u.ID, before.AuditFields(), u.AuditFields()); err != nil {
			return err
		}
		if u.Binders != nil {
			return integrity.SetUserBinders(ctx, tx, u.ID, u.Binders)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}
