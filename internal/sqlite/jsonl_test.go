package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

func TestReadJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binders.jsonl")
	content := `{"binder_id":"b1","author":"ana","is_favorite":1}

not json
{"binder_id":"b2","author":"bob","extra":"ignored"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2, "blank and malformed lines are skipped")
	assert.Equal(t, "b1", records[0]["binder_id"])
	assert.Equal(t, "bob", records[1]["author"])

	missing, err := readJSONL(filepath.Join(dir, "absent.jsonl"))
	assert.NoError(t, err)
	assert.Empty(t, missing)
}

func TestWriteJSONL_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	require.NoError(t, writeJSONL(path, []map[string]any{{"key": "theme", "value": `{"mode":"dark"}`}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"key":"theme","value":"{\"mode\":\"dark\"}"}`+"\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestBackend(t)

	binder := &types.Binder{Author: "ana", IsFavorite: true, Properties: types.Properties{"en-US": {"title": "Home"}}}
	category := &types.Category{Properties: types.Properties{"en-US": {"title": "Food"}}}
	pictogram := &types.Pictogram{Order: 3, Properties: types.Properties{"en-US": {"text": "eat"}}}
	user := &types.User{Email: "ana@example.com", Role: types.RoleUser, Settings: map[string]any{"voice": "f1"}}
	require.NoError(t, write(t, src, func(ctx context.Context, tx *Tx) error {
		if err := tx.InsertUser(ctx, user); err != nil {
			return err
		}
		if err := tx.InsertBinder(ctx, binder); err != nil {
			return err
		}
		if err := tx.InsertCategory(ctx, category); err != nil {
			return err
		}
		pictogram.Binder = binder.ID
		pictogram.Categories = []string{category.ID}
		if err := tx.InsertPictogram(ctx, pictogram); err != nil {
			return err
		}
		if err := tx.InsertBinderUser(ctx, binder.ID, user.ID); err != nil {
			return err
		}
		if err := tx.InsertHistory(ctx, &types.History{EntityType: types.EntityBinder, EntityID: binder.ID,
			Action: types.ActionCreate, Changes: map[string]types.FieldChange{"author": {To: "ana"}}}); err != nil {
			return err
		}
		return tx.PutSetting(ctx, "theme", []byte(`{"mode":"dark"}`))
	}))

	dir := filepath.Join(t.TempDir(), "export")
	require.NoError(t, src.Export(ctx, dir))
	for _, name := range types.SchemaV1.Names() {
		_, err := os.Stat(filepath.Join(dir, name+".jsonl"))
		assert.NoError(t, err, name)
	}

	dst := newTestBackend(t)
	stats, err := dst.Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats[types.CollectionPictograms])
	assert.Equal(t, 3, stats[types.CollectionProperties])

	read(t, dst, func(ctx context.Context, tx *Tx) {
		gotB, err := tx.GetBinder(ctx, binder.ID)
		require.NoError(t, err)
		require.NotNil(t, gotB)
		assert.True(t, gotB.IsFavorite)
		assert.Equal(t, binder.Properties, gotB.Properties)
		assert.Equal(t, []string{pictogram.ID}, gotB.Pictograms)
		assert.Equal(t, []string{user.ID}, gotB.Users)

		gotP, err := tx.GetPictogram(ctx, pictogram.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, gotP.Order)
		assert.Equal(t, []string{category.ID}, gotP.Categories)

		gotU, err := tx.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"voice": "f1"}, gotU.Settings)

		history, err := tx.ListHistory(ctx, HistoryFilter{EntityID: binder.ID})
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "ana", history[0].Changes["author"].To)

		value, found, err := tx.GetSetting(ctx, "theme")
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, `{"mode":"dark"}`, string(value))
	})

	_, err = dst.Import(ctx, dir)
	assert.ErrorIs(t, err, types.ErrValidation, "import into a non-empty store is refused")
}

func TestImport_ConstraintFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "binders.jsonl"),
		[]byte(`{"binder_id":"b1","author":"ana"}`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pictograms.jsonl"),
		[]byte(`{"pictogram_id":"p1","binder_id":"ghost"}`+"\n"), 0o644))

	b := newTestBackend(t)
	_, err := b.Import(ctx, dir)
	assert.ErrorIs(t, err, types.ErrNotFound)

	read(t, b, func(ctx context.Context, tx *Tx) {
		binders, err := tx.ListBinders(ctx)
		require.NoError(t, err)
		assert.Empty(t, binders)
	})
}
