// This file implements whole-store export to per-table JSONL files.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// tableColumns lists the persisted columns of each collection. Export and
// Import walk types.SchemaV1 so parents precede children.
var tableColumns = map[string][]string{
	types.CollectionUsers:              {"user_id", "name", "email", "hash", "role", "settings"},
	types.CollectionBinders:            {"binder_id", "author", "image", "is_favorite"},
	types.CollectionCategories:         {"category_id", "image"},
	types.CollectionPictograms:         {"pictogram_id", "binder_id", "image", "sound", "is_favorite", "ord"},
	types.CollectionProperties:         {"entity_id", "entity_type", "language", "key", "value"},
	types.CollectionCategoryPictograms: {"category_id", "pictogram_id"},
	types.CollectionBinderUsers:        {"binder_id", "user_id"},
	types.CollectionHistory:            {"history_id", "entity_type", "entity_id", "action", "performed_by", "timestamp", "changes"},
	types.CollectionSettings:           {"key", "value"},
}

func jsonlFile(dir, collection string) string {
	return filepath.Join(dir, collection+".jsonl")
}

// Export writes every collection to dir/<collection>.jsonl from one
// consistent snapshot. Each file is replaced atomically.
func (b *Backend) Export(ctx context.Context, dir string) error {
	snapshot := make(map[string][]map[string]any)
	err := b.Read(ctx, func(tx *Tx) error {
		for _, name := range types.SchemaV1.Names() {
			records, err := tx.dumpTable(ctx, name)
			if err != nil {
				return err
			}
			snapshot[name] = records
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	for _, name := range types.SchemaV1.Names() {
		if err := writeJSONL(jsonlFile(dir, name), snapshot[name]); err != nil {
			return fmt.Errorf("exporting %s: %w", name, err)
		}
		b.log.Debug("exported collection", zap.String("collection", name), zap.Int("records", len(snapshot[name])))
	}
	return nil
}

func (t *Tx) dumpTable(ctx context.Context, table string) ([]map[string]any, error) {
	columns, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("no column mapping for %q", table)
	}
	rows, err := t.query(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(columns, ", "), table, strings.Join(primaryKey(table), ", ")))
	if err != nil {
		return nil, fmt.Errorf("dumping %s: %w", table, err)
	}
	defer rows.Close()

	records := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, storageError("scanning "+table, err)
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterating "+table, err)
	}
	return records, nil
}

func primaryKey(table string) []string {
	if c, ok := types.SchemaV1.Collection(table); ok && len(c.PrimaryKey) > 0 {
		return c.PrimaryKey
	}
	return tableColumns[table][:1]
}
