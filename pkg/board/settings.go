package board

import (
	"context"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// Setting returns the setting stored under key. Nil when the key is
// missing or its stored value no longer passes validation.
func (bd *Board) Setting(ctx context.Context, key string) *types.Setting {
	return bd.settings.Get(ctx, key)
}

// SetSetting validates and stores value under key. A value that fails
// validation is not written and the error wraps types.ErrValidation.
func (bd *Board) SetSetting(ctx context.Context, key string, value any) error {
	return bd.settings.Set(ctx, key, value)
}

// Settings lists every readable setting in key order.
func (bd *Board) Settings(ctx context.Context) ([]types.Setting, error) {
	return bd.settings.List(ctx)
}

// KnownSetting reports whether key has a dedicated schema beyond the
// generic value shape.
func (bd *Board) KnownSetting(key string) bool {
	return bd.settings.Known(key)
}
