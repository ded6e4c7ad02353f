// Package seed loads board files: YAML documents describing binders,
// categories and pictograms with their translations.
package seed

import (
	"bytes"
	_ "embed"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pictoboard/pkg/board"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

//go:embed starter.yaml
var starter []byte

// Translations maps a language tag to display text.
type Translations map[string]string

// File is a parsed board file. Keys are local to the file and let
// pictograms reference categories before they have IDs.
type File struct {
	Categories []Category `yaml:"categories"`
	Binders    []Binder   `yaml:"binders"`
}

// Category in a board file.
type Category struct {
	Key   string       `yaml:"key"`
	Image string       `yaml:"image,omitempty"`
	Title Translations `yaml:"title,omitempty"`
}

// Binder in a board file.
type Binder struct {
	Key         string       `yaml:"key"`
	Author      string       `yaml:"author"`
	Image       string       `yaml:"image,omitempty"`
	Favorite    bool         `yaml:"favorite,omitempty"`
	Title       Translations `yaml:"title,omitempty"`
	Description Translations `yaml:"description,omitempty"`
	Pictograms  []Pictogram  `yaml:"pictograms,omitempty"`
}

// Pictogram in a board file. Order defaults to the position in the list.
type Pictogram struct {
	Text       Translations `yaml:"text,omitempty"`
	Image      string       `yaml:"image,omitempty"`
	Sound      string       `yaml:"sound,omitempty"`
	Favorite   bool         `yaml:"favorite,omitempty"`
	Order      *int         `yaml:"order,omitempty"`
	Categories []string     `yaml:"categories,omitempty"`
}

// Result maps file keys to the IDs assigned on import.
type Result struct {
	Categories map[string]string `json:"categories"`
	Binders    map[string]string `json:"binders"`
	Pictograms int               `json:"pictograms"`
}

// Parse decodes a board file. Unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: parsing board file: %v", types.ErrValidation, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseFile reads and decodes the board file at path.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading board file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Starter returns the built-in starter board.
func Starter() *File {
	f, err := Parse(bytes.NewReader(starter))
	if err != nil {
		panic(fmt.Sprintf("seed: embedded starter board: %v", err))
	}
	return f
}

// Validate checks keys are unique and every category reference resolves.
func (f *File) Validate() error {
	categories := make(map[string]bool, len(f.Categories))
	for i, c := range f.Categories {
		if c.Key == "" {
			return fmt.Errorf("%w: category %d has no key", types.ErrValidation, i)
		}
		if categories[c.Key] {
			return fmt.Errorf("%w: duplicate category key %q", types.ErrValidation, c.Key)
		}
		categories[c.Key] = true
	}
	binders := make(map[string]bool, len(f.Binders))
	for i, b := range f.Binders {
		if b.Key == "" {
			return fmt.Errorf("%w: binder %d has no key", types.ErrValidation, i)
		}
		if binders[b.Key] {
			return fmt.Errorf("%w: duplicate binder key %q", types.ErrValidation, b.Key)
		}
		binders[b.Key] = true
		for j, p := range b.Pictograms {
			for _, key := range p.Categories {
				if !categories[key] {
					return fmt.Errorf("%w: binder %q pictogram %d: unknown category %q",
						types.ErrValidation, b.Key, j, key)
				}
			}
		}
	}
	return nil
}

// Apply creates the file's entities on bd: binders, then categories, then
// pictograms. Each entity is its own transaction; on failure the entities
// created so far remain and the error names the one that failed.
func Apply(ctx context.Context, bd *board.Board, f *File, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	res := &Result{
		Categories: make(map[string]string, len(f.Categories)),
		Binders:    make(map[string]string, len(f.Binders)),
	}

	for _, b := range f.Binders {
		id, err := bd.CreateBinder(ctx, &types.Binder{
			Author:     b.Author,
			Image:      b.Image,
			IsFavorite: b.Favorite,
			Properties: properties(field{types.FieldTitle, b.Title}, field{types.FieldDescription, b.Description}),
		})
		if err != nil {
			return res, fmt.Errorf("seeding binder %q: %w", b.Key, err)
		}
		res.Binders[b.Key] = id
	}

	for _, c := range f.Categories {
		id, err := bd.CreateCategory(ctx, &types.Category{
			Image:      c.Image,
			Properties: properties(field{types.FieldTitle, c.Title}),
		})
		if err != nil {
			return res, fmt.Errorf("seeding category %q: %w", c.Key, err)
		}
		res.Categories[c.Key] = id
	}

	for _, b := range f.Binders {
		for i, p := range b.Pictograms {
			order := i
			if p.Order != nil {
				order = *p.Order
			}
			categoryIDs := make([]string, 0, len(p.Categories))
			for _, key := range p.Categories {
				categoryIDs = append(categoryIDs, res.Categories[key])
			}
			if _, err := bd.CreatePictogram(ctx, &types.Pictogram{
				Binder:     res.Binders[b.Key],
				Image:      p.Image,
				Sound:      p.Sound,
				IsFavorite: p.Favorite,
				Order:      order,
				Categories: categoryIDs,
				Properties: properties(field{types.FieldText, p.Text}),
			}); err != nil {
				return res, fmt.Errorf("seeding binder %q pictogram %d: %w", b.Key, i, err)
			}
			res.Pictograms++
		}
	}

	log.Info("board seeded",
		zap.Int("binders", len(res.Binders)),
		zap.Int("categories", len(res.Categories)),
		zap.Int("pictograms", res.Pictograms))
	return res, nil
}

type field struct {
	key  string
	text Translations
}

// properties builds a bag from per-language text. Nil when no field has
// text.
func properties(fs ...field) types.Properties {
	props := types.Properties{}
	for _, f := range fs {
		for lang, value := range f.text {
			props.Set(lang, f.key, value)
		}
	}
	if len(props) == 0 {
		return nil
	}
	return props
}
