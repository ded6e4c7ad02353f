package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	msqlite "modernc.org/sqlite"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// errReadOnly is returned by write primitives on a Tx obtained from Read.
var errReadOnly = errors.New("write in read-only transaction")

// Tx is one store transaction. Its methods are the store primitives: the
// integrity engine composes them inside a single Backend.Write.
type Tx struct {
	b      *Backend
	tx     *sql.Tx
	scopes map[string]bool

	touchedCollections map[string]bool
	touchedKeys        map[string]bool
}

func newTx(b *Backend, tx *sql.Tx, scopes []string) *Tx {
	t := &Tx{
		b:                  b,
		tx:                 tx,
		touchedCollections: make(map[string]bool),
		touchedKeys:        make(map[string]bool),
	}
	if scopes != nil {
		t.scopes = make(map[string]bool, len(scopes))
		for _, s := range scopes {
			t.scopes[s] = true
		}
	}
	return t
}

// Writable reports whether the transaction came from Write.
func (t *Tx) Writable() bool { return t.scopes != nil }

// require checks that collection is in the declared write scope.
func (t *Tx) require(collection string) error {
	if t.scopes == nil {
		return errReadOnly
	}
	if !t.scopes[collection] {
		return fmt.Errorf("collection %q outside transaction scope", collection)
	}
	return nil
}

// touch records a write for the commit event.
func (t *Tx) touch(collection string, keys ...string) {
	t.touchedCollections[collection] = true
	for _, k := range keys {
		if k != "" {
			t.touchedKeys[k] = true
		}
	}
}

func (t *Tx) commit(seq uint64) (types.Commit, bool) {
	if len(t.touchedCollections) == 0 {
		return types.Commit{}, false
	}
	c := types.Commit{Seq: seq}
	for name := range t.touchedCollections {
		c.Collections = append(c.Collections, name)
	}
	for k := range t.touchedKeys {
		c.Keys = append(c.Keys, k)
	}
	sort.Strings(c.Collections)
	sort.Strings(c.Keys)
	return c, true
}

func (t *Tx) runHook(ctx context.Context, query string) error {
	if t.b.hook == nil {
		return nil
	}
	if err := t.b.hook(ctx, query); err != nil {
		return storageError("statement hook", err)
	}
	return nil
}

func (t *Tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := t.runHook(ctx, query); err != nil {
		return nil, err
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

func (t *Tx) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := t.runHook(ctx, query); err != nil {
		return nil, err
	}
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// queryRow scans a single row into dest. found is false on sql.ErrNoRows.
func (t *Tx) queryRow(ctx context.Context, query string, args []any, dest ...any) (found bool, err error) {
	if err := t.runHook(ctx, query); err != nil {
		return false, err
	}
	err = t.tx.QueryRowContext(ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err)
	}
	return true, nil
}

// exists reports whether query returns a row.
func (t *Tx) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	return t.queryRow(ctx, query, args, &one)
}

// queryStrings collects a single string column.
func (t *Tx) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := t.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, storageError("scanning column", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterating rows", err)
	}
	return out, nil
}

// storageError wraps an I/O failure as ErrTransientStorage.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrTransientStorage, err)
}

// SQLite primary result code for constraint failures.
const sqliteConstraint = 19

// classify maps driver errors onto the store taxonomy. Constraint failures
// the pre-checks missed surface as uniqueness or not-found errors; anything
// else is transient storage.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *msqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqliteConstraint {
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"), strings.Contains(msg, "PRIMARY KEY"):
			return fmt.Errorf("%w: %v", types.ErrUniquenessViolation, err)
		case strings.Contains(msg, "FOREIGN KEY"):
			return fmt.Errorf("%w: %v", types.ErrNotFound, err)
		default:
			return fmt.Errorf("%w: %v", types.ErrValidation, err)
		}
	}
	return storageError("executing statement", err)
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
