// Package audit appends History records for store mutations. Records are
// written through the same transaction as the change they describe.
package audit

import (
	"context"
	"sort"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// SystemActor is recorded when the context names no actor.
const SystemActor = "system"

type actorKey struct{}

// WithActor returns a context whose mutations are attributed to actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// Actor returns the actor carried by ctx, or SystemActor.
func Actor(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return SystemActor
}

// Writer is the history primitive of a store transaction.
type Writer interface {
	InsertHistory(ctx context.Context, h *types.History) error
}

// Entry describes one change to record.
type Entry struct {
	EntityType string
	EntityID   string
	Action     string
	Changes    map[string]types.FieldChange
}

// Record appends e attributed to the context's actor.
func Record(ctx context.Context, w Writer, e Entry) error {
	return w.InsertHistory(ctx, &types.History{
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      e.Action,
		PerformedBy: Actor(ctx),
		Changes:     e.Changes,
	})
}

// Diff returns the fields whose values differ between before and after. A
// nil before describes a create; a nil after describes a delete.
func Diff(before, after map[string]string) map[string]types.FieldChange {
	changes := make(map[string]types.FieldChange)
	for k, from := range before {
		to, ok := after[k]
		if !ok || to != from {
			changes[k] = types.FieldChange{From: from, To: to}
		}
	}
	for k, to := range after {
		if _, ok := before[k]; !ok && to != "" {
			changes[k] = types.FieldChange{To: to}
		}
	}
	for k, c := range changes {
		if c.From == "" && c.To == "" {
			delete(changes, k)
		}
	}
	return changes
}

// Fields returns the changed field names of a record in sorted order.
func Fields(changes map[string]types.FieldChange) []string {
	names := make([]string, 0, len(changes))
	for k := range changes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
