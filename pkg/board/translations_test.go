package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

func TestTranslations(t *testing.T) {
	ctx := context.Background()
	bd := openTestBoard(t)

	binder, _ := bd.CreateBinder(ctx, &types.Binder{Author: "ana"})
	p := &types.Pictogram{Binder: binder, Properties: text("en-US", "apple")}
	_, err := bd.CreatePictogram(ctx, p)
	require.NoError(t, err)

	require.NoError(t, bd.AddTranslation(ctx, types.EntityPictogram, p.ID, "fr-fr", types.FieldText, "pomme"))
	err = bd.AddTranslation(ctx, types.EntityPictogram, p.ID, "fr-FR", types.FieldText, "poire")
	assert.ErrorIs(t, err, types.ErrUniquenessViolation)

	v, err := bd.ResolvePictogram(ctx, p.ID, "fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "pomme", v.Text)

	require.NoError(t, bd.SetTranslation(ctx, types.EntityPictogram, p.ID, "fr-FR", types.FieldText, "poire"))
	v, err = bd.ResolvePictogram(ctx, p.ID, "fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "poire", v.Text)

	entries, err := bd.History(ctx, HistoryFilter{EntityID: p.ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.ActionUpdate, entries[0].Action)
	assert.Equal(t, types.FieldChange{From: "pomme", To: "poire"}, entries[0].Changes["properties.fr-FR.text"])

	require.NoError(t, bd.DeleteTranslation(ctx, types.EntityPictogram, p.ID, "fr-FR", types.FieldText))
	err = bd.DeleteTranslation(ctx, types.EntityPictogram, p.ID, "fr-FR", types.FieldText)
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err := bd.GetPictogram(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, text("en-US", "apple"), got.Properties)
}

func TestTranslations_Rejected(t *testing.T) {
	ctx := context.Background()
	bd := openTestBoard(t)
	binder, _ := bd.CreateBinder(ctx, &types.Binder{Author: "ana"})

	tests := []struct {
		name       string
		entityType string
		id         string
		language   string
		key        string
		wantErr    error
	}{
		{"user carries no overlay", types.EntityUser, binder, "en-US", "title", types.ErrUnknownEntity},
		{"bad language tag", types.EntityBinder, binder, "not a tag!", "title", types.ErrValidation},
		{"empty key", types.EntityBinder, binder, "en-US", "", types.ErrValidation},
		{"missing entity", types.EntityBinder, "ghost", "en-US", "title", types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bd.SetTranslation(ctx, tt.entityType, tt.id, tt.language, tt.key, "x")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	entries, err := bd.History(ctx, HistoryFilter{EntityID: binder})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the create is recorded")
}
