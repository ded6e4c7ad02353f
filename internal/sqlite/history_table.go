// This file implements the append-only history collection. There is no
// update or delete primitive.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// historyTimeLayout is fixed width so timestamps sort lexically.
const historyTimeLayout = "2006-01-02T15:04:05.000000000Z"

const selectHistory = "SELECT history_id, entity_type, entity_id, action, performed_by, timestamp, changes FROM history"

// HistoryFilter narrows ListHistory. Zero fields match everything.
type HistoryFilter struct {
	EntityType string
	EntityID   string
	Limit      int
}

// InsertHistory appends one record. ID and Timestamp are filled in when
// empty.
func (t *Tx) InsertHistory(ctx context.Context, h *types.History) error {
	if err := t.require(types.CollectionHistory); err != nil {
		return err
	}
	if h.EntityType == "" || h.EntityID == "" || h.Action == "" {
		return fmt.Errorf("%w: history needs entity type, entity id and action", types.ErrValidation)
	}
	var err error
	if h.ID == "" {
		if h.ID, err = newID(); err != nil {
			return err
		}
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now().UTC()
	}
	if h.Changes == nil {
		h.Changes = map[string]types.FieldChange{}
	}
	changes, err := json.Marshal(h.Changes)
	if err != nil {
		return fmt.Errorf("%w: history changes: %v", types.ErrValidation, err)
	}
	if _, err := t.exec(ctx,
		"INSERT INTO history (history_id, entity_type, entity_id, action, performed_by, timestamp, changes) VALUES (?, ?, ?, ?, ?, ?, ?)",
		h.ID, h.EntityType, h.EntityID, h.Action, h.PerformedBy,
		h.Timestamp.UTC().Format(historyTimeLayout), string(changes)); err != nil {
		return fmt.Errorf("inserting history: %w", err)
	}
	t.touch(types.CollectionHistory, h.ID, h.EntityID)
	return nil
}

// GetHistory returns one record or nil.
func (t *Tx) GetHistory(ctx context.Context, id string) (*types.History, error) {
	if id == "" {
		return nil, nil
	}
	entries, err := t.listHistory(ctx, selectHistory+" WHERE history_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// ListHistory returns matching records newest first.
func (t *Tx) ListHistory(ctx context.Context, f HistoryFilter) ([]*types.History, error) {
	var where []string
	var args []any
	if f.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, f.EntityType)
	}
	if f.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, f.EntityID)
	}
	query := selectHistory
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	// UUID v7 ids break ties between records in the same instant.
	query += " ORDER BY timestamp DESC, history_id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return t.listHistory(ctx, query, args...)
}

func (t *Tx) listHistory(ctx context.Context, query string, args ...any) ([]*types.History, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	entries := []*types.History{}
	for rows.Next() {
		var h types.History
		var ts, changes string
		if err := rows.Scan(&h.ID, &h.EntityType, &h.EntityID, &h.Action,
			&h.PerformedBy, &ts, &changes); err != nil {
			return nil, storageError("scanning history", err)
		}
		if h.Timestamp, err = time.Parse(historyTimeLayout, ts); err != nil {
			return nil, storageError("parsing history timestamp", err)
		}
		if err := json.Unmarshal([]byte(changes), &h.Changes); err != nil {
			return nil, storageError("decoding history changes", err)
		}
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterating history", err)
	}
	return entries, nil
}
