package board

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/pictoboard/internal/integrity"
	"github.com/mesh-intelligence/pictoboard/internal/live"
	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/overlay"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// Deps declares the collections and entity keys a subscription reads.
type Deps = live.Deps

// Subscription delivers the latest result of a read function.
type Subscription[T any] = live.Subscription[T]

// Snapshot is one delivered subscription state.
type Snapshot[T any] = live.Snapshot[T]

// Subscription states.
const (
	Pending = live.Pending
	Ready   = live.Ready
	Failed  = live.Failed
)

// Subscribe runs read now and again after every commit matching deps. The
// subscription starts Pending; call Close when done.
func Subscribe[T any](bd *Board, read func(ctx context.Context) (T, error), deps Deps) *Subscription[T] {
	return live.Subscribe(bd.hub, live.ReadFunc[T](read), deps)
}

// View is a binder with its pictograms and their categories resolved for
// one language.
type View struct {
	Binder     overlay.BinderView      `json:"binder"`
	Pictograms []overlay.PictogramView `json:"pictograms"`
	Categories []overlay.CategoryView  `json:"categories"`
}

// ResolveBinder reads a binder and resolves it for language. Nil if the
// binder does not exist.
func (bd *Board) ResolveBinder(ctx context.Context, id, language string) (*overlay.BinderView, error) {
	b, err := bd.GetBinder(ctx, id)
	if err != nil || b == nil {
		return nil, err
	}
	v := overlay.ResolveBinder(b, language)
	return &v, nil
}

// ResolveCategory reads a category and resolves it for language. Nil if the
// category does not exist.
func (bd *Board) ResolveCategory(ctx context.Context, id, language string) (*overlay.CategoryView, error) {
	c, err := bd.GetCategory(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	v := overlay.ResolveCategory(c, language)
	return &v, nil
}

// ResolvePictogram reads a pictogram and resolves it for language. Nil if
// the pictogram does not exist.
func (bd *Board) ResolvePictogram(ctx context.Context, id, language string) (*overlay.PictogramView, error) {
	p, err := bd.GetPictogram(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	v := overlay.ResolvePictogram(p, language)
	return &v, nil
}

// BinderPictograms returns the binder's pictograms in display order
// resolved for language.
func (bd *Board) BinderPictograms(ctx context.Context, binderID, language string) ([]overlay.PictogramView, error) {
	ps, err := bd.ListPictograms(ctx, binderID)
	if err != nil {
		return nil, err
	}
	return overlay.ResolvePictograms(ps, language), nil
}

// View reads a whole binder resolved for language from one snapshot.
// ErrNotFound if the binder does not exist.
func (bd *Board) View(ctx context.Context, binderID, language string) (*View, error) {
	var (
		b  *types.Binder
		ps []*types.Pictogram
		cs []*types.Category
	)
	err := bd.store.Read(ctx, func(tx *sqlite.Tx) error {
		var err error
		if b, err = tx.GetBinder(ctx, binderID); err != nil || b == nil {
			return err
		}
		if ps, err = tx.ListPictogramsByBinder(ctx, binderID); err != nil {
			return err
		}
		cs, err = integrity.CategoriesFromPictograms(ctx, tx, ps)
		return err
	})
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: binder %s", types.ErrNotFound, binderID)
	}
	return &View{
		Binder:     overlay.ResolveBinder(b, language),
		Pictograms: overlay.ResolvePictograms(ps, language),
		Categories: overlay.ResolveCategories(cs, language),
	}, nil
}

// boardDeps covers everything a binder view reads. Pictogram and overlay
// writes do not carry the binder key, so the dependency is collection wide.
var boardDeps = Deps{Collections: []string{
	types.CollectionBinders,
	types.CollectionPictograms,
	types.CollectionProperties,
	types.CollectionCategories,
	types.CollectionCategoryPictograms,
}}

// WatchBinderPictograms keeps the binder's resolved pictograms current.
func (bd *Board) WatchBinderPictograms(binderID, language string) *Subscription[[]overlay.PictogramView] {
	return Subscribe(bd, func(ctx context.Context) ([]overlay.PictogramView, error) {
		return bd.BinderPictograms(ctx, binderID, language)
	}, boardDeps)
}

// WatchView keeps the whole resolved binder current.
func (bd *Board) WatchView(binderID, language string) *Subscription[*View] {
	return Subscribe(bd, func(ctx context.Context) (*View, error) {
		return bd.View(ctx, binderID, language)
	}, boardDeps)
}
