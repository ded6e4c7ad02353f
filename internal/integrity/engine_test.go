package integrity

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pictoboard/internal/audit"
	"github.com/mesh-intelligence/pictoboard/internal/sqlite"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

type fixture struct {
	t   *testing.T
	ctx context.Context
	b   *sqlite.Backend
	e   *Engine
}

func newFixture(t *testing.T, opts ...sqlite.Option) *fixture {
	t.Helper()
	b := sqlite.NewBackend(opts...)
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return &fixture{t: t, ctx: context.Background(), b: b, e: New(b)}
}

func (f *fixture) write(fn func(tx *sqlite.Tx) error) {
	f.t.Helper()
	require.NoError(f.t, f.b.Write(f.ctx, Scope, fn))
}

func (f *fixture) binder() string {
	f.t.Helper()
	b := &types.Binder{Author: "ana"}
	f.write(func(tx *sqlite.Tx) error { return tx.InsertBinder(f.ctx, b) })
	return b.ID
}

func (f *fixture) category() string {
	f.t.Helper()
	c := &types.Category{Properties: types.Properties{"en-US": {"title": "Food"}}}
	f.write(func(tx *sqlite.Tx) error { return tx.InsertCategory(f.ctx, c) })
	return c.ID
}

func (f *fixture) pictogram(binderID string, categories ...string) string {
	f.t.Helper()
	p := &types.Pictogram{Binder: binderID, Categories: categories}
	f.write(func(tx *sqlite.Tx) error { return tx.InsertPictogram(f.ctx, p) })
	return p.ID
}

func (f *fixture) getPictogram(id string) *types.Pictogram {
	f.t.Helper()
	var p *types.Pictogram
	require.NoError(f.t, f.b.Read(f.ctx, func(tx *sqlite.Tx) error {
		var err error
		p, err = tx.GetPictogram(f.ctx, id)
		return err
	}))
	return p
}

func (f *fixture) getCategory(id string) *types.Category {
	f.t.Helper()
	var c *types.Category
	require.NoError(f.t, f.b.Read(f.ctx, func(tx *sqlite.Tx) error {
		var err error
		c, err = tx.GetCategory(f.ctx, id)
		return err
	}))
	return c
}

// assertDual checks that category and pictogram membership lists mirror
// each other for every row in the store.
func (f *fixture) assertDual() {
	f.t.Helper()
	require.NoError(f.t, f.b.Read(f.ctx, func(tx *sqlite.Tx) error {
		pictograms, err := tx.ListPictograms(f.ctx)
		require.NoError(f.t, err)
		categories, err := tx.ListCategories(f.ctx)
		require.NoError(f.t, err)
		for _, p := range pictograms {
			for _, c := range categories {
				assert.Equal(f.t, contains(c.Pictograms, p.ID), contains(p.Categories, c.ID),
					"pictogram %s / category %s", p.ID, c.ID)
			}
		}
		return nil
	}))
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func categoryIDs(categories []*types.Category) []string {
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}

func TestDeleteCategory_RemovesEveryReference(t *testing.T) {
	f := newFixture(t)
	b1, b2 := f.binder(), f.binder()
	c := f.category()
	other := f.category()

	var pictograms []string
	for i := 0; i < 4; i++ {
		binder := b1
		if i%2 == 1 {
			binder = b2
		}
		pictograms = append(pictograms, f.pictogram(binder, c, other))
	}

	require.NoError(t, f.e.DeleteCategory(f.ctx, c))

	assert.Nil(t, f.getCategory(c))
	for _, pid := range pictograms {
		p := f.getPictogram(pid)
		require.NotNil(t, p, "pictograms survive a category delete")
		assert.Equal(t, []string{other}, p.Categories)
	}
	f.assertDual()

	assert.ErrorIs(t, f.e.DeleteCategory(f.ctx, c), types.ErrNotFound)
}

func TestDeletePictogram_RemovesFromCategories(t *testing.T) {
	f := newFixture(t)
	binder := f.binder()
	c1, c2 := f.category(), f.category()
	p := f.pictogram(binder, c1, c2)
	keep := f.pictogram(binder, c1)

	require.NoError(t, f.e.DeletePictogram(f.ctx, p))

	assert.Nil(t, f.getPictogram(p))
	assert.Equal(t, []string{keep}, f.getCategory(c1).Pictograms)
	assert.Empty(t, f.getCategory(c2).Pictograms)
	f.assertDual()
}

func TestDeleteBinder_Cascades(t *testing.T) {
	f := newFixture(t)
	b1, b2 := f.binder(), f.binder()
	onlyB1 := f.category()
	shared := f.category()
	f.pictogram(b1, onlyB1, shared)
	f.pictogram(b1, onlyB1)
	survivor := f.pictogram(b2, shared)

	user := &types.User{Email: "bob@example.com", Role: types.RoleUser}
	f.write(func(tx *sqlite.Tx) error {
		if err := tx.InsertUser(f.ctx, user); err != nil {
			return err
		}
		return AddBinderUser(f.ctx, tx, b1, user.ID)
	})

	require.NoError(t, f.e.DeleteBinder(f.ctx, b1))

	require.NoError(t, f.b.Read(f.ctx, func(tx *sqlite.Tx) error {
		left, err := tx.ListPictogramsByBinder(f.ctx, b1)
		require.NoError(t, err)
		assert.Empty(t, left)
		gone, err := tx.GetBinder(f.ctx, b1)
		require.NoError(t, err)
		assert.Nil(t, gone)
		u, err := tx.GetUser(f.ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, u.Binders)
		return nil
	}))

	emptied := f.getCategory(onlyB1)
	require.NotNil(t, emptied, "categories are never cascade targets")
	assert.Empty(t, emptied.Pictograms)
	assert.Equal(t, []string{survivor}, f.getCategory(shared).Pictograms)
	f.assertDual()
}

func TestDeleteUser_DropsEdges(t *testing.T) {
	f := newFixture(t)
	binder := f.binder()
	user := &types.User{Email: "bob@example.com", Role: types.RoleUser}
	f.write(func(tx *sqlite.Tx) error {
		if err := tx.InsertUser(f.ctx, user); err != nil {
			return err
		}
		return AddBinderUser(f.ctx, tx, binder, user.ID)
	})

	require.NoError(t, f.e.DeleteUser(f.ctx, user.ID))
	require.NoError(t, f.b.Read(f.ctx, func(tx *sqlite.Tx) error {
		b, err := tx.GetBinder(f.ctx, binder)
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Empty(t, b.Users)
		return nil
	}))
}

func TestDeletePictogram_FailureMidCascadeRollsBack(t *testing.T) {
	var armed atomic.Bool
	var unlinks atomic.Int32
	hook := func(_ context.Context, query string) error {
		if armed.Load() && strings.HasPrefix(query, "DELETE FROM category_pictograms") {
			if unlinks.Add(1) == 2 {
				return errors.New("injected I/O failure")
			}
		}
		return nil
	}
	f := newFixture(t, sqlite.WithStatementHook(hook))
	binder := f.binder()
	c1, c2, c3 := f.category(), f.category(), f.category()
	p := f.pictogram(binder, c1, c2, c3)

	armed.Store(true)
	err := f.e.DeletePictogram(f.ctx, p)
	armed.Store(false)
	require.ErrorIs(t, err, types.ErrTransientStorage)
	assert.Equal(t, int32(2), unlinks.Load(), "failure hit after the first unlink")

	got := f.getPictogram(p)
	require.NotNil(t, got, "pictogram still exists")
	assert.Equal(t, []string{c1, c2, c3}, got.Categories)
	for _, c := range []string{c1, c2, c3} {
		assert.Equal(t, []string{p}, f.getCategory(c).Pictograms)
	}
	f.assertDual()
}

func TestDeleteBinder_FailureRollsBack(t *testing.T) {
	var armed atomic.Bool
	hook := func(_ context.Context, query string) error {
		if armed.Load() && strings.HasPrefix(query, "DELETE FROM binders") {
			return errors.New("injected I/O failure")
		}
		return nil
	}
	f := newFixture(t, sqlite.WithStatementHook(hook))
	binder := f.binder()
	c := f.category()
	p := f.pictogram(binder, c)

	armed.Store(true)
	err := f.e.DeleteBinder(f.ctx, binder)
	armed.Store(false)
	require.ErrorIs(t, err, types.ErrTransientStorage)

	require.NotNil(t, f.getPictogram(p))
	assert.Equal(t, []string{p}, f.getCategory(c).Pictograms)
}

func TestAssignmentPath(t *testing.T) {
	f := newFixture(t)
	binder := f.binder()
	c1, c2, c3 := f.category(), f.category(), f.category()
	p := f.pictogram(binder)

	require.NoError(t, f.e.AssignCategory(f.ctx, c1, p))
	assert.ErrorIs(t, f.e.AssignCategory(f.ctx, c1, p), types.ErrUniquenessViolation)
	assert.ErrorIs(t, f.e.AssignCategory(f.ctx, "ghost", p), types.ErrNotFound)

	require.NoError(t, f.e.SetPictogramCategories(f.ctx, p, []string{c2, c3, c2}))
	assert.Equal(t, []string{c2, c3}, f.getPictogram(p).Categories)
	f.assertDual()

	q := f.pictogram(binder)
	require.NoError(t, f.e.SetCategoryPictograms(f.ctx, c3, []string{q}))
	assert.Equal(t, []string{q}, f.getCategory(c3).Pictograms)
	assert.Equal(t, []string{c2}, f.getPictogram(p).Categories)
	f.assertDual()

	require.NoError(t, f.e.UnassignCategory(f.ctx, c2, p))
	assert.ErrorIs(t, f.e.UnassignCategory(f.ctx, c2, p), types.ErrNotFound)

	// A failing step leaves earlier steps of the same call unapplied.
	err := f.e.SetPictogramCategories(f.ctx, p, []string{c1, "ghost"})
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Empty(t, f.getPictogram(p).Categories)
}

func TestMovePictogram(t *testing.T) {
	f := newFixture(t)
	from, to := f.binder(), f.binder()
	c := f.category()
	p := f.pictogram(from, c)

	ctx := audit.WithActor(f.ctx, "ana")
	require.NoError(t, f.e.MovePictogram(ctx, p, to))

	got := f.getPictogram(p)
	assert.Equal(t, to, got.Binder)
	assert.Equal(t, []string{c}, got.Categories, "edges move with the pictogram")
	assert.ErrorIs(t, f.e.MovePictogram(f.ctx, p, "ghost"), types.ErrNotFound)

	require.NoError(t, f.b.Read(f.ctx, func(tx *sqlite.Tx) error {
		entries, err := tx.ListHistory(f.ctx, sqlite.HistoryFilter{EntityID: p})
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, types.ActionMove, entries[0].Action)
		assert.Equal(t, "ana", entries[0].PerformedBy)
		assert.Equal(t, types.FieldChange{From: from, To: to}, entries[0].Changes["binder"])
		return nil
	}))
}

func TestBinderUsers(t *testing.T) {
	f := newFixture(t)
	binder := f.binder()
	user := &types.User{Email: "bob@example.com", Role: types.RoleUser}
	f.write(func(tx *sqlite.Tx) error { return tx.InsertUser(f.ctx, user) })

	require.NoError(t, f.e.AddBinderUser(f.ctx, binder, user.ID))
	assert.ErrorIs(t, f.e.AddBinderUser(f.ctx, binder, user.ID), types.ErrUniquenessViolation)
	assert.ErrorIs(t, f.e.AddBinderUser(f.ctx, binder, "ghost"), types.ErrNotFound)
	require.NoError(t, f.e.RemoveBinderUser(f.ctx, binder, user.ID))
	assert.ErrorIs(t, f.e.RemoveBinderUser(f.ctx, binder, user.ID), types.ErrNotFound)
}

func TestSetBinderUsers(t *testing.T) {
	f := newFixture(t)
	binder := f.binder()
	var ids []string
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := &types.User{Email: email, Role: types.RoleUser}
		f.write(func(tx *sqlite.Tx) error { return tx.InsertUser(f.ctx, u) })
		ids = append(ids, u.ID)
	}

	require.NoError(t, f.e.SetBinderUsers(f.ctx, binder, ids[:2]))
	require.NoError(t, f.e.SetBinderUsers(f.ctx, binder, ids[1:]))
	require.NoError(t, f.b.Read(f.ctx, func(tx *sqlite.Tx) error {
		got, err := tx.UserIDsForBinder(f.ctx, binder)
		require.NoError(t, err)
		assert.Equal(t, ids[1:], got)
		return nil
	}))

	assert.ErrorIs(t, f.e.SetBinderUsers(f.ctx, "ghost", ids), types.ErrNotFound)
}

func TestCategoriesFromBinder(t *testing.T) {
	f := newFixture(t)
	b1, b2 := f.binder(), f.binder()
	c1, c2, c3 := f.category(), f.category(), f.category()
	p1 := f.pictogram(b1, c2, c1)
	p2 := f.pictogram(b1, c1)
	f.pictogram(b2, c3)

	got, err := f.e.GetCategoriesFromBinderID(f.ctx, b1)
	require.NoError(t, err)
	assert.Equal(t, []string{c1, c2}, categoryIDs(got), "distinct, ordered by id")

	none, err := f.e.GetCategoriesFromBinderID(f.ctx, "ghost")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	stale := []*types.Pictogram{{ID: p2}, {ID: p1, Categories: []string{c3}}, nil}
	fromPictograms, err := f.e.GetCategoriesFromPictograms(f.ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, []string{c1, c2}, categoryIDs(fromPictograms), "membership comes from the edge set")
}

func TestAssignThenDeleteCategory(t *testing.T) {
	f := newFixture(t)
	b1 := f.binder()
	p1 := f.pictogram(b1)
	c1 := f.category()

	require.NoError(t, f.b.Write(f.ctx, Scope, func(tx *sqlite.Tx) error {
		if err := SetCategoryPictograms(f.ctx, tx, c1, []string{p1}); err != nil {
			return err
		}
		return SetPictogramCategories(f.ctx, tx, p1, []string{c1})
	}))

	got, err := f.e.GetCategoriesFromBinderID(f.ctx, b1)
	require.NoError(t, err)
	assert.Equal(t, []string{c1}, categoryIDs(got))

	require.NoError(t, f.e.DeleteCategory(f.ctx, c1))
	assert.Empty(t, f.getPictogram(p1).Categories)
	got, err = f.e.GetCategoriesFromBinderID(f.ctx, b1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryIsNeverCascaded(t *testing.T) {
	f := newFixture(t)
	binder := f.binder()
	c := f.category()
	p := f.pictogram(binder, c)
	require.NoError(t, f.e.DeleteBinder(f.ctx, binder))
	require.NoError(t, f.e.DeleteCategory(f.ctx, c))

	require.NoError(t, f.b.Read(f.ctx, func(tx *sqlite.Tx) error {
		entries, err := tx.ListHistory(f.ctx, sqlite.HistoryFilter{EntityID: p})
		require.NoError(t, err)
		actions := make([]string, len(entries))
		for i, h := range entries {
			actions[i] = h.Action
		}
		assert.Equal(t, []string{types.ActionDelete, types.ActionUnassign}, actions)

		binderLog, err := tx.ListHistory(f.ctx, sqlite.HistoryFilter{EntityType: types.EntityBinder, EntityID: binder})
		require.NoError(t, err)
		require.Len(t, binderLog, 1)
		assert.Equal(t, "ana", binderLog[0].Changes["author"].From)
		return nil
	}))
}
