// Package overlay projects the per-language property bag of an entity into
// flat, language-resolved views.
//
// Resolution is exact: a field present for the requested language resolves
// to its value, anything else resolves to the empty string. Language tags
// are compared in canonical form, so "en-us" finds text stored as "en-US".
// There is no fallback from one language to another.
package overlay

import (
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// Translatable is an entity carrying an overlay. V is the entity's value
// type with the bag removed.
type Translatable[V any] interface {
	Translations() types.Properties
	WithoutProperties() V
}

// Resolved is an entity copy without its bag plus the resolved fields.
type Resolved[V any] struct {
	Entity   V                 `json:"entity"`
	Language string            `json:"language"`
	Fields   map[string]string `json:"fields"`
}

// Resolve looks up each field for language. The entity is not modified and
// the result shares no memory with it.
//
//	r := overlay.Resolve[types.Binder](b, "en-US", types.FieldTitle)
func Resolve[V any, E Translatable[V]](entity E, language string, fields ...string) Resolved[V] {
	return Resolved[V]{
		Entity:   entity.WithoutProperties(),
		Language: language,
		Fields:   Fields(entity.Translations(), language, fields...),
	}
}

// Fields resolves the named fields of props. Every requested field is
// present in the result.
func Fields(props types.Properties, language string, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	texts := lookupLanguage(props, language)
	for _, f := range fields {
		out[f] = texts[f]
	}
	return out
}

// Text resolves a single field.
func Text(props types.Properties, language, field string) string {
	return lookupLanguage(props, language)[field]
}

// lookupLanguage returns the texts stored for language, matching the tag
// exactly first and then by canonical form.
func lookupLanguage(props types.Properties, language string) map[string]string {
	if len(props) == 0 {
		return nil
	}
	if texts, ok := props[language]; ok {
		return texts
	}
	canon, err := types.CanonicalLanguage(language)
	if err != nil {
		return nil
	}
	if texts, ok := props[canon]; ok {
		return texts
	}
	for _, lang := range props.Languages() {
		if c, err := types.CanonicalLanguage(lang); err == nil && c == canon {
			return props[lang]
		}
	}
	return nil
}
