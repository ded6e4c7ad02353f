package settings

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// Schema validates settings against the embedded CUE definitions. A cue
// context is not safe for concurrent use, so calls are serialized.
type Schema struct {
	mu      sync.Mutex
	ctx     *cue.Context
	setting cue.Value
	known   cue.Value
}

// NewSchema compiles the embedded schema.
func NewSchema() (*Schema, error) {
	return compileSchema(schemaSource)
}

func compileSchema(src string) (*Schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(src, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compiling settings schema: %w", err)
	}
	setting := root.LookupPath(cue.ParsePath("#Setting"))
	if !setting.Exists() {
		return nil, fmt.Errorf("settings schema has no #Setting")
	}
	return &Schema{
		ctx:     ctx,
		setting: setting,
		known:   root.LookupPath(cue.ParsePath("#Known")),
	}, nil
}

// Known reports whether key has a dedicated schema.
func (s *Schema) Known(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.known.LookupPath(cue.MakePath(cue.Str(key))).Exists()
}

// Validate checks {key, value}. value must already be in JSON form
// (maps, float64, string, bool).
func (s *Schema) Validate(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.ctx.Encode(map[string]any{"key": key, "value": value})
	if err := doc.Err(); err != nil {
		return err
	}
	if err := s.setting.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	if perKey := s.known.LookupPath(cue.MakePath(cue.Str(key))); perKey.Exists() {
		if err := perKey.Unify(s.ctx.Encode(value)).Validate(cue.Concrete(true)); err != nil {
			return err
		}
	}
	return nil
}
