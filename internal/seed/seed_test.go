package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/pictoboard/pkg/board"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

const sample = `
categories:
  - key: food
    title: {en-US: Food, fr-fr: Nourriture}
binders:
  - key: home
    author: ana
    title: {en-US: Home}
    description: {en-US: At home}
    pictograms:
      - text: {en-US: apple, fr-FR: pomme}
        categories: [food]
      - text: {en-US: hello}
        order: 7
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, f.Binders, 1)
	assert.Len(t, f.Binders[0].Pictograms, 2)
	assert.Equal(t, "Nourriture", f.Categories[0].Title["fr-fr"])

	empty, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Binders)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "binders:\n  - key: a\n    author: ana\n    colour: red\n"},
		{"missing binder key", "binders:\n  - author: ana\n"},
		{"duplicate category", "categories:\n  - key: a\n  - key: a\n"},
		{"unknown category reference", "binders:\n  - key: a\n    author: ana\n    pictograms:\n      - categories: [nope]\n"},
		{"not yaml", "binders: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	bd, err := board.Open(ctx, types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer bd.Close()

	f, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	core, logs := observer.New(zap.InfoLevel)
	res, err := Apply(ctx, bd, f, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pictograms)
	assert.Equal(t, 1, logs.FilterMessage("board seeded").Len())

	v, err := bd.View(ctx, res.Binders["home"], "fr-FR")
	require.NoError(t, err)
	require.Len(t, v.Pictograms, 2)
	assert.Equal(t, "pomme", v.Pictograms[0].Text)
	assert.Equal(t, 7, v.Pictograms[1].Order)
	require.Len(t, v.Categories, 1)
	assert.Equal(t, res.Categories["food"], v.Categories[0].ID)
	assert.Equal(t, "Nourriture", v.Categories[0].Title)

	en, err := bd.ResolveBinder(ctx, res.Binders["home"], "en-US")
	require.NoError(t, err)
	assert.Equal(t, "Home", en.Title)
	assert.Equal(t, "At home", en.Description)
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	bd, err := board.Open(ctx, types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer bd.Close()

	f := &File{Binders: []Binder{{Key: "ok", Author: "ana"}, {Key: "bad", Author: " "}}}
	res, err := Apply(ctx, bd, f, nil)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Contains(t, err.Error(), `"bad"`)
	assert.Contains(t, res.Binders, "ok")
}

func TestStarter(t *testing.T) {
	f := Starter()
	require.NoError(t, f.Validate())
	assert.NotEmpty(t, f.Binders)
	assert.NotEmpty(t, f.Categories)
}
