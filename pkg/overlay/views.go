package overlay

import "github.com/mesh-intelligence/pictoboard/pkg/types"

// BinderView is a binder flattened for one language.
type BinderView struct {
	types.Binder
	Language    string `json:"language"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CategoryView is a category flattened for one language.
type CategoryView struct {
	types.Category
	Language string `json:"language"`
	Title    string `json:"title"`
}

// PictogramView is a pictogram flattened for one language.
type PictogramView struct {
	types.Pictogram
	Language string `json:"language"`
	Text     string `json:"text"`
}

// ResolveBinder resolves title and description. A nil binder yields the
// zero view.
func ResolveBinder(b *types.Binder, language string) BinderView {
	if b == nil {
		return BinderView{Language: language}
	}
	r := Resolve[types.Binder](b, language, types.FieldTitle, types.FieldDescription)
	return BinderView{
		Binder:      r.Entity,
		Language:    language,
		Title:       r.Fields[types.FieldTitle],
		Description: r.Fields[types.FieldDescription],
	}
}

// ResolveCategory resolves title.
func ResolveCategory(c *types.Category, language string) CategoryView {
	if c == nil {
		return CategoryView{Language: language}
	}
	r := Resolve[types.Category](c, language, types.FieldTitle)
	return CategoryView{Category: r.Entity, Language: language, Title: r.Fields[types.FieldTitle]}
}

// ResolveCategories resolves each category in order.
func ResolveCategories(cs []*types.Category, language string) []CategoryView {
	out := make([]CategoryView, 0, len(cs))
	for _, c := range cs {
		out = append(out, ResolveCategory(c, language))
	}
	return out
}

// ResolvePictogram resolves text.
func ResolvePictogram(p *types.Pictogram, language string) PictogramView {
	if p == nil {
		return PictogramView{Language: language}
	}
	r := Resolve[types.Pictogram](p, language, types.FieldText)
	return PictogramView{Pictogram: r.Entity, Language: language, Text: r.Fields[types.FieldText]}
}

// ResolvePictograms resolves each pictogram in order.
func ResolvePictograms(ps []*types.Pictogram, language string) []PictogramView {
	out := make([]PictogramView, 0, len(ps))
	for _, p := range ps {
		out = append(out, ResolvePictogram(p, language))
	}
	return out
}
