package overlay

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

func TestResolve_MissingFieldIsEmpty(t *testing.T) {
	c := &types.Category{Properties: types.Properties{"en-US": {"title": "Home"}}}

	r := Resolve[types.Category](c, "en-US", "title", "description")

	assert.Equal(t, map[string]string{"title": "Home", "description": ""}, r.Fields)
	assert.Nil(t, r.Entity.Properties)
}

func TestResolve(t *testing.T) {
	props := types.Properties{
		"en-US": {"title": "Home", "description": "Everyday words"},
		"fr-FR": {"title": "Maison"},
		"es-mx": {"title": "Casa"},
	}
	tests := []struct {
		name     string
		props    types.Properties
		language string
		want     map[string]string
	}{
		{"exact tag", props, "fr-FR", map[string]string{"title": "Maison", "description": ""}},
		{"request in non-canonical form", props, "en-us", map[string]string{"title": "Home", "description": "Everyday words"}},
		{"stored in non-canonical form", props, "es-MX", map[string]string{"title": "Casa", "description": ""}},
		{"no fallback to another region", props, "en-GB", map[string]string{"title": "", "description": ""}},
		{"no fallback to base language", props, "fr", map[string]string{"title": "", "description": ""}},
		{"unparsable tag", props, "not a tag!", map[string]string{"title": "", "description": ""}},
		{"nil bag", nil, "en-US", map[string]string{"title": "", "description": ""}},
		{"empty bag", types.Properties{}, "en-US", map[string]string{"title": "", "description": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &types.Binder{ID: "b1", Author: "ana", Properties: tt.props}
			r := Resolve[types.Binder](b, tt.language, types.FieldTitle, types.FieldDescription)
			assert.Equal(t, tt.want, r.Fields)
			assert.Equal(t, "ana", r.Entity.Author)
			assert.Equal(t, tt.language, r.Language)
		})
	}
}

func TestResolve_DoesNotMutate(t *testing.T) {
	p := &types.Pictogram{
		ID:         "p1",
		Binder:     "b1",
		Categories: []string{"c1"},
		Properties: types.Properties{"en-US": {"text": "eat"}},
	}
	before := *p
	before.Properties = p.Properties.Clone()
	before.Categories = append([]string(nil), p.Categories...)

	first := ResolvePictogram(p, "en-US")
	second := ResolvePictogram(p, "en-US")

	assert.Equal(t, first, second, "resolution is idempotent")
	assert.Equal(t, before, *p, "source is untouched")

	first.Categories[0] = "changed"
	assert.Equal(t, "c1", p.Categories[0], "view shares no memory with the source")
}

// TestResolve_Determinism checks that a present field resolves to its
// stored value and an absent one to "" across generated bags.
func TestResolve_Determinism(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	languages := []string{"en-US", "fr-FR", "de-DE", "pt-BR", "ja"}
	fields := []string{"title", "description", "text", "hint"}

	for i := 0; i < 200; i++ {
		props := types.Properties{}
		for _, lang := range languages {
			for _, f := range fields {
				if rng.Intn(2) == 0 {
					props.Set(lang, f, fmt.Sprintf("%s/%s/%d", lang, f, rng.Int()))
				}
			}
		}
		b := &types.Binder{Author: "ana", Properties: props}
		lang := languages[rng.Intn(len(languages))]
		field := fields[rng.Intn(len(fields))]

		r := Resolve[types.Binder](b, lang, field)
		want, ok := props.Get(lang, field)
		if ok {
			require.Equal(t, want, r.Fields[field])
		} else {
			require.Equal(t, "", r.Fields[field])
		}
	}
}

func TestText(t *testing.T) {
	props := types.Properties{"en-US": {"text": "eat"}}
	assert.Equal(t, "eat", Text(props, "en-us", "text"))
	assert.Equal(t, "", Text(props, "en-US", "title"))
	assert.Equal(t, "", Text(nil, "en-US", "text"))
}

func TestResolveNil(t *testing.T) {
	assert.Equal(t, BinderView{Language: "en-US"}, ResolveBinder(nil, "en-US"))
	assert.Equal(t, CategoryView{Language: "en-US"}, ResolveCategory(nil, "en-US"))
	assert.Equal(t, PictogramView{Language: "en-US"}, ResolvePictogram(nil, "en-US"))
}

// boardView is the screen a UI renders for one binder.
type boardView struct {
	Binder     BinderView      `json:"binder"`
	Categories []CategoryView  `json:"categories"`
	Pictograms []PictogramView `json:"pictograms"`
}

func fixtureBoard() (*types.Binder, []*types.Category, []*types.Pictogram) {
	binder := &types.Binder{
		ID:         "b1",
		Author:     "ana",
		Image:      "home.png",
		IsFavorite: true,
		Properties: types.Properties{
			"en-US": {"title": "Home", "description": "Everyday words"},
			"fr-FR": {"title": "Maison"},
		},
		Pictograms: []string{"p1", "p2"},
	}
	categories := []*types.Category{{
		ID:         "c1",
		Image:      "food.png",
		Properties: types.Properties{"en-US": {"title": "Food"}, "fr-FR": {"title": "Nourriture"}},
		Pictograms: []string{"p1"},
	}}
	pictograms := []*types.Pictogram{
		{
			ID:         "p1",
			Image:      "eat.png",
			Sound:      "eat.mp3",
			Properties: types.Properties{"en-US": {"text": "eat"}, "fr-FR": {"text": "manger"}},
			Binder:     "b1",
			Categories: []string{"c1"},
		},
		{
			ID:         "p2",
			Image:      "drink.png",
			IsFavorite: true,
			Order:      1,
			Properties: types.Properties{"en-US": {"text": "drink"}},
			Binder:     "b1",
		},
	}
	return binder, categories, pictograms
}

func TestResolvedBoard_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, lang := range []string{"fr-FR", "en-us"} {
		t.Run(lang, func(t *testing.T) {
			binder, categories, pictograms := fixtureBoard()
			view := boardView{
				Binder:     ResolveBinder(binder, lang),
				Categories: ResolveCategories(categories, lang),
				Pictograms: ResolvePictograms(pictograms, lang),
			}
			data, err := json.MarshalIndent(view, "", "  ")
			require.NoError(t, err)
			g.Assert(t, "board_"+lang, append(data, '\n'))
		})
	}
}
