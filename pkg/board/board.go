// Package board is the boundary the UI consumes: entity create, read,
// update and delete, translation views, live subscriptions and settings.
//
// A Board owns one attached SQLite backend. Leaf writes go straight to the
// store; anything that touches a relationship (cascading deletes, category
// membership, binder moves, binder sharing) runs through the integrity
// engine inside the same transaction. Every committed write is fanned out
// to live subscriptions.
package board

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pictoboard/internal/audit"
	"github.com/mesh-intelligence/pictoboard/internal/integrity"
	"github.com/mesh-intelligence/pictoboard/internal/live"
	"github.com/mesh-intelligence/pictoboard/internal/settings"
	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// Option configures Open.
type Option func(*options)

type options struct {
	log  *zap.Logger
	hook sqlite.StatementHook
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithStatementHook runs h before every SQL statement. A non-nil error
// aborts the statement and rolls back the transaction.
func WithStatementHook(h func(ctx context.Context, query string) error) Option {
	return func(o *options) { o.hook = h }
}

// WithActor attributes the writes made with ctx to actor in the history
// log. The default actor is "system".
func WithActor(ctx context.Context, actor string) context.Context {
	return audit.WithActor(ctx, actor)
}

// Board is an open store. It is safe for concurrent use.
type Board struct {
	log      *zap.Logger
	store    *sqlite.Backend
	engine   *integrity.Engine
	hub      *live.Hub
	settings *settings.Store
	unlisten func()
}

// Open attaches the store in cfg.DataDir and wires the engine, the
// subscription hub and the settings store to it.
func Open(ctx context.Context, cfg types.Config, opts ...Option) (*Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	backendOpts := []sqlite.Option{sqlite.WithLogger(o.log.Named("store"))}
	if o.hook != nil {
		backendOpts = append(backendOpts, sqlite.WithStatementHook(o.hook))
	}
	store := sqlite.NewBackend(backendOpts...)
	if err := store.Attach(cfg); err != nil {
		return nil, fmt.Errorf("opening board: %w", err)
	}

	st, err := settings.New(store.SettingsKV(), o.log.Named("settings"))
	if err != nil {
		store.Detach()
		return nil, fmt.Errorf("loading settings schema: %w", err)
	}

	hub := live.NewHub(live.WithLogger(o.log.Named("live")))
	bd := &Board{
		log:      o.log,
		store:    store,
		engine:   integrity.New(store, integrity.WithLogger(o.log.Named("integrity"))),
		hub:      hub,
		settings: st,
		unlisten: store.AddListener(hub),
	}
	o.log.Debug("board opened", zap.String("dataDir", store.Config().DataDir))
	return bd, nil
}

// Close ends every subscription, closes the settings handle and detaches
// the store. Idempotent.
func (bd *Board) Close() error {
	bd.unlisten()
	bd.hub.Close()
	bd.settings.Close()
	if err := bd.store.Detach(); err != nil {
		return fmt.Errorf("closing board: %w", err)
	}
	return nil
}

// Delete removes the entity of entityType with id, cascading through its
// relationships. History entries cannot be deleted. For settings, id is the
// setting key.
func (bd *Board) Delete(ctx context.Context, entityType, id string) error {
	var err error
	switch entityType {
	case types.EntityBinder:
		err = bd.engine.DeleteBinder(ctx, id)
	case types.EntityCategory:
		err = bd.engine.DeleteCategory(ctx, id)
	case types.EntityPictogram:
		err = bd.engine.DeletePictogram(ctx, id)
	case types.EntityUser:
		err = bd.engine.DeleteUser(ctx, id)
	case types.EntitySetting:
		err = bd.settings.Delete(ctx, id)
	case types.EntityHistory:
		return fmt.Errorf("deleting history %s: %w", id, types.ErrImmutable)
	default:
		return fmt.Errorf("deleting %q: %w", entityType, types.ErrUnknownEntity)
	}
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", entityType, id, err)
	}
	return nil
}

// AssignCategory adds the pictogram to the category.
func (bd *Board) AssignCategory(ctx context.Context, categoryID, pictogramID string) error {
	return bd.engine.AssignCategory(ctx, categoryID, pictogramID)
}

// UnassignCategory removes the pictogram from the category.
func (bd *Board) UnassignCategory(ctx context.Context, categoryID, pictogramID string) error {
	return bd.engine.UnassignCategory(ctx, categoryID, pictogramID)
}

// MovePictogram moves the pictogram to another binder.
func (bd *Board) MovePictogram(ctx context.Context, pictogramID, binderID string) error {
	return bd.engine.MovePictogram(ctx, pictogramID, binderID)
}

// ShareBinder shares the binder with the user.
func (bd *Board) ShareBinder(ctx context.Context, binderID, userID string) error {
	return bd.engine.AddBinderUser(ctx, binderID, userID)
}

// UnshareBinder stops sharing the binder with the user.
func (bd *Board) UnshareBinder(ctx context.Context, binderID, userID string) error {
	return bd.engine.RemoveBinderUser(ctx, binderID, userID)
}

// CategoriesForBinder returns the distinct categories used by the binder's
// pictograms.
func (bd *Board) CategoriesForBinder(ctx context.Context, binderID string) ([]*types.Category, error) {
	return bd.engine.GetCategoriesFromBinderID(ctx, binderID)
}

// CategoriesForPictograms returns the distinct categories holding any of
// the pictograms.
func (bd *Board) CategoriesForPictograms(ctx context.Context, pictograms []*types.Pictogram) ([]*types.Category, error) {
	return bd.engine.GetCategoriesFromPictograms(ctx, pictograms)
}

// HistoryFilter narrows History. Zero fields match everything.
type HistoryFilter = sqlite.HistoryFilter

// History lists audit entries newest first.
func (bd *Board) History(ctx context.Context, f HistoryFilter) (entries []*types.History, err error) {
	err = bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		entries, err = tx.ListHistory(ctx, f)
		return err
	})
	return entries, err
}

// Export writes one JSONL file per collection into dir.
func (bd *Board) Export(ctx context.Context, dir string) error {
	return bd.store.Export(ctx, dir)
}

// Import loads JSONL files written by Export into an empty board and
// returns the record count per collection.
func (bd *Board) Import(ctx context.Context, dir string) (map[string]int, error) {
	stats, err := bd.store.Import(ctx, dir)
	return stats, err
}
