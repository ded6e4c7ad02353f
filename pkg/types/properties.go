package types

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"
)

// Property keys used by the overlay for display text.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldText        = "text"
)

// Properties is a per-language overlay of display text:
// language tag -> property key -> value.
type Properties map[string]map[string]string

// Get returns the value stored for lang and key.
func (p Properties) Get(lang, key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p[lang][key]
	return v, ok
}

// Set stores value under lang and key, allocating the inner map as needed.
// Set panics on a nil receiver like a plain map write would.
func (p Properties) Set(lang, key, value string) {
	inner, ok := p[lang]
	if !ok {
		inner = make(map[string]string)
		p[lang] = inner
	}
	inner[key] = value
}

// Languages returns the language tags present in the bag, sorted.
func (p Properties) Languages() []string {
	langs := make([]string, 0, len(p))
	for lang := range p {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Clone returns a deep copy. A nil bag clones to nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for lang, kv := range p {
		inner := make(map[string]string, len(kv))
		for k, v := range kv {
			inner[k] = v
		}
		out[lang] = inner
	}
	return out
}

// Len returns the number of (language, key) triples in the bag.
func (p Properties) Len() int {
	n := 0
	for _, kv := range p {
		n += len(kv)
	}
	return n
}

// CanonicalLanguage parses tag as a BCP 47 language tag and returns its
// canonical string form ("en-us" becomes "en-US").
func CanonicalLanguage(tag string) (string, error) {
	if tag == "" {
		return "", fmt.Errorf("%w: empty language tag", ErrValidation)
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("%w: language tag %q: %v", ErrValidation, tag, err)
	}
	return t.String(), nil
}

// Canonicalize returns a copy of the bag keyed by canonical language tags.
// It fails with ErrValidation on an unparsable tag or an empty key, and with
// ErrUniquenessViolation when two tags collapse onto the same canonical tag
// and both define the same key.
func (p Properties) Canonicalize() (Properties, error) {
	if p == nil {
		return nil, nil
	}
	out := make(Properties, len(p))
	for _, lang := range p.Languages() {
		canon, err := CanonicalLanguage(lang)
		if err != nil {
			return nil, err
		}
		for key, value := range p[lang] {
			if key == "" {
				return nil, fmt.Errorf("%w: empty property key for %s", ErrValidation, canon)
			}
			if _, dup := out.Get(canon, key); dup {
				return nil, fmt.Errorf("%w: property (%s, %s) defined twice", ErrUniquenessViolation, canon, key)
			}
			out.Set(canon, key, value)
		}
	}
	return out, nil
}

// flatten renders the bag as "properties.<lang>.<key>" entries for audit diffs.
func (p Properties) flatten(into map[string]string) {
	for lang, kv := range p {
		for k, v := range kv {
			into["properties."+lang+"."+k] = v
		}
	}
}
