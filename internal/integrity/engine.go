// Package integrity implements the relationship-preserving operations of
// the store: cascading deletes, edge assignment, pictogram moves and the
// derived category reads.
//
// Every operation exists at two levels. The package functions take a
// *sqlite.Tx so callers can compose them with other writes in one
// transaction. The Engine methods run one operation in its own
// Backend.Write; a failure at any step rolls the whole operation back.
package integrity

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// Scope is the write scope of every engine operation.
var Scope = []string{
	types.CollectionBinders,
	types.CollectionCategories,
	types.CollectionPictograms,
	types.CollectionUsers,
	types.CollectionProperties,
	types.CollectionCategoryPictograms,
	types.CollectionBinderUsers,
	types.CollectionHistory,
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine runs integrity operations against a backend.
type Engine struct {
	b   *sqlite.Backend
	log *zap.Logger
}

// New returns an engine over b.
func New(b *sqlite.Backend, opts ...Option) *Engine {
	e := &Engine{b: b, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) write(ctx context.Context, op string, fn func(tx *sqlite.Tx) error) error {
	err := e.b.Write(ctx, Scope, fn)
	if err != nil {
		e.log.Debug("integrity operation rolled back", zap.String("op", op), zap.Error(err))
	}
	return err
}

// DeleteCategory unlinks the category from every pictogram, then deletes it.
func (e *Engine) DeleteCategory(ctx context.Context, id string) error {
	return e.write(ctx, "delete category", func(tx *sqlite.Tx) error {
		return DeleteCategory(ctx, tx, id)
	})
}

// DeletePictogram unlinks the pictogram from every category, then deletes it.
func (e *Engine) DeletePictogram(ctx context.Context, id string) error {
	return e.write(ctx, "delete pictogram", func(tx *sqlite.Tx) error {
		return DeletePictogram(ctx, tx, id)
	})
}

// DeleteBinder deletes the binder's pictograms (with their edges), drops its
// user edges, then deletes the binder.
func (e *Engine) DeleteBinder(ctx context.Context, id string) error {
	return e.write(ctx, "delete binder", func(tx *sqlite.Tx) error {
		n, err := DeleteBinder(ctx, tx, id)
		if err == nil {
			e.log.Debug("binder cascade", zap.String("binder", id), zap.Int("pictograms", n))
		}
		return err
	})
}

// DeleteUser drops the user's binder edges, then deletes the user.
func (e *Engine) DeleteUser(ctx context.Context, id string) error {
	return e.write(ctx, "delete user", func(tx *sqlite.Tx) error {
		return DeleteUser(ctx, tx, id)
	})
}

// AssignCategory adds a pictogram to a category.
func (e *Engine) AssignCategory(ctx context.Context, categoryID, pictogramID string) error {
	return e.write(ctx, "assign category", func(tx *sqlite.Tx) error {
		return AssignCategory(ctx, tx, categoryID, pictogramID)
	})
}

// UnassignCategory removes a pictogram from a category.
func (e *Engine) UnassignCategory(ctx context.Context, categoryID, pictogramID string) error {
	return e.write(ctx, "unassign category", func(tx *sqlite.Tx) error {
		return UnassignCategory(ctx, tx, categoryID, pictogramID)
	})
}

// SetPictogramCategories makes categoryIDs the exact category set of the
// pictogram.
func (e *Engine) SetPictogramCategories(ctx context.Context, pictogramID string, categoryIDs []string) error {
	return e.write(ctx, "set pictogram categories", func(tx *sqlite.Tx) error {
		return SetPictogramCategories(ctx, tx, pictogramID, categoryIDs)
	})
}

// SetCategoryPictograms makes pictogramIDs the exact member set of the
// category.
func (e *Engine) SetCategoryPictograms(ctx context.Context, categoryID string, pictogramIDs []string) error {
	return e.write(ctx, "set category pictograms", func(tx *sqlite.Tx) error {
		return SetCategoryPictograms(ctx, tx, categoryID, pictogramIDs)
	})
}

// MovePictogram reassigns a pictogram to another binder.
func (e *Engine) MovePictogram(ctx context.Context, pictogramID, binderID string) error {
	return e.write(ctx, "move pictogram", func(tx *sqlite.Tx) error {
		return MovePictogram(ctx, tx, pictogramID, binderID)
	})
}

// AddBinderUser shares a binder with a user.
func (e *Engine) AddBinderUser(ctx context.Context, binderID, userID string) error {
	return e.write(ctx, "add binder user", func(tx *sqlite.Tx) error {
		return AddBinderUser(ctx, tx, binderID, userID)
	})
}

// RemoveBinderUser stops sharing a binder with a user.
func (e *Engine) RemoveBinderUser(ctx context.Context, binderID, userID string) error {
	return e.write(ctx, "remove binder user", func(tx *sqlite.Tx) error {
		return RemoveBinderUser(ctx, tx, binderID, userID)
	})
}

// SetBinderUsers makes userIDs the exact set of users the binder is shared
// with.
func (e *Engine) SetBinderUsers(ctx context.Context, binderID string, userIDs []string) error {
	return e.write(ctx, "set binder users", func(tx *sqlite.Tx) error {
		return SetBinderUsers(ctx, tx, binderID, userIDs)
	})
}

// GetCategoriesFromBinderID returns the distinct categories used by the
// binder's pictograms, ordered by category ID.
func (e *Engine) GetCategoriesFromBinderID(ctx context.Context, binderID string) (categories []*types.Category, err error) {
	err = e.b.Read(ctx, func(tx *sqlite.Tx) error {
		categories, err = CategoriesFromBinder(ctx, tx, binderID)
		return err
	})
	return categories, err
}

// GetCategoriesFromPictograms returns the distinct categories holding any of
// the pictograms, ordered by category ID.
func (e *Engine) GetCategoriesFromPictograms(ctx context.Context, pictograms []*types.Pictogram) (categories []*types.Category, err error) {
	err = e.b.Read(ctx, func(tx *sqlite.Tx) error {
		categories, err = CategoriesFromPictograms(ctx, tx, pictograms)
		return err
	})
	return categories, err
}
