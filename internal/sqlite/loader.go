// This file implements Import: loading an Export directory into an empty
// store in one transaction.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// ImportStats counts the records loaded per collection.
type ImportStats map[string]int

// Import reads dir/<collection>.jsonl for every collection and inserts the
// records. The store must be empty. Loading is transactional: on any
// constraint failure nothing is written. Malformed lines are skipped and
// unknown fields are ignored.
func (b *Backend) Import(ctx context.Context, dir string) (ImportStats, error) {
	names := types.SchemaV1.Names()
	stats := ImportStats{}
	err := b.Write(ctx, names, func(tx *Tx) error {
		empty, err := tx.isEmpty(ctx, names)
		if err != nil {
			return err
		}
		if !empty {
			return fmt.Errorf("%w: import requires an empty store", types.ErrValidation)
		}
		for _, name := range names {
			records, err := readJSONL(jsonlFile(dir, name))
			if err != nil {
				return err
			}
			if err := tx.insertRecords(ctx, name, records); err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
			stats[name] = len(records)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("imported store", zap.String("dir", dir), zap.Any("records", stats))
	return stats, nil
}

func (t *Tx) isEmpty(ctx context.Context, tables []string) (bool, error) {
	for _, table := range tables {
		found, err := t.exists(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		if err != nil {
			return false, fmt.Errorf("checking %s: %w", table, err)
		}
		if found {
			return false, nil
		}
	}
	return true, nil
}

// insertRecords extracts the mapped columns present in each record; absent
// columns take their table default. Nested JSON values are re-serialized to
// text.
func (t *Tx) insertRecords(ctx context.Context, table string, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}
	if err := t.require(table); err != nil {
		return err
	}
	for _, rec := range records {
		var columns []string
		var args []any
		for _, col := range tableColumns[table] {
			raw, ok := rec[col]
			if !ok || raw == nil {
				continue
			}
			v, err := columnValue(raw)
			if err != nil {
				return fmt.Errorf("%w: %s.%s: %v", types.ErrValidation, table, col, err)
			}
			columns = append(columns, col)
			args = append(args, v)
		}
		if len(columns) == 0 {
			continue
		}
		insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(columns, ", "), placeholders(len(columns)))
		if _, err := t.exec(ctx, insert, args...); err != nil {
			return err
		}
		t.touch(table)
	}
	return nil
}

func columnValue(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		return x.Float64()
	case bool:
		return boolToInt(x), nil
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return x, nil
	}
}
