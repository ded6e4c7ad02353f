// Package sqlite implements the pictoboard entity store on SQLite.
//
// The Backend owns the database handle. All reads and writes run inside a
// Tx obtained from Read or Write; Write declares the collections it touches,
// commits atomically and publishes a types.Commit to registered listeners.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// DatabaseFile is the file created under Config.DataDir.
const DatabaseFile = "pictoboard.db"

// StatementHook runs before every statement a Tx executes. A non-nil error
// aborts the statement and is reported as a transient storage error.
type StatementHook func(ctx context.Context, query string) error

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.log = l
		}
	}
}

// WithStatementHook installs a hook called before every statement.
func WithStatementHook(h StatementHook) Option {
	return func(b *Backend) { b.hook = h }
}

// Backend is the SQLite entity store.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	log   *zap.Logger
	hook  StatementHook
	locks *scopeLocks
	seq   atomic.Uint64

	listenersMu sync.RWMutex
	listeners   map[int]types.CommitListener
	nextID      int
}

// NewBackend creates a detached Backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log:       zap.NewNop(),
		locks:     newScopeLocks(),
		listeners: make(map[int]types.CommitListener),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens (or creates) DataDir/pictoboard.db and applies the schema.
// Returns ErrAlreadyAttached if already attached and ErrSchemaVersion if the
// database was written by an unsupported layout.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY between
	// our own transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, config.BusyTimeout()); err != nil {
		db.Close()
		return err
	}
	if err := applySchema(db, types.SchemaV1); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.attached = true
	b.log.Info("store attached", zap.String("path", dbPath), zap.Int("schema_version", types.SchemaVersion))
	return nil
}

// Detach closes the database. Idempotent. After Detach, Read and Write
// return ErrDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		b.db = nil
	}
	b.log.Info("store detached")
	return nil
}

// Config returns the configuration passed to Attach.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// AddListener registers l for commit events and returns a function that
// removes it. Listeners run synchronously after commit and must not block.
func (b *Backend) AddListener(l types.CommitListener) (remove func()) {
	b.listenersMu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.listenersMu.Unlock()

	return func() {
		b.listenersMu.Lock()
		delete(b.listeners, id)
		b.listenersMu.Unlock()
	}
}

func (b *Backend) publish(c types.Commit) {
	b.listenersMu.RLock()
	defer b.listenersMu.RUnlock()
	for _, l := range b.listeners {
		l.Committed(c)
	}
}

// Write runs fn in a transaction that may write only the declared scopes.
// Transactions with overlapping scopes are serialized. If fn or the commit
// fails, every write is rolled back and no commit is published.
func (b *Backend) Write(ctx context.Context, scopes []string, fn func(tx *Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}

	release := b.locks.acquire(scopes)
	defer release()

	sqlTx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("beginning transaction", err)
	}
	tx := newTx(b, sqlTx, scopes)
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			b.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return storageError("committing transaction", err)
	}

	if commit, ok := tx.commit(b.seq.Add(1)); ok {
		b.log.Debug("committed",
			zap.Uint64("seq", commit.Seq),
			zap.Strings("collections", commit.Collections),
			zap.Int("keys", len(commit.Keys)))
		b.publish(commit)
	}
	return nil
}

// Read runs fn in a read-only transaction so it observes one consistent
// state. Write methods on the Tx fail.
func (b *Backend) Read(ctx context.Context, fn func(tx *Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrDetached
	}

	sqlTx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("beginning read transaction", err)
	}
	defer sqlTx.Rollback()
	return fn(newTx(b, sqlTx, nil))
}

// newID generates a UUID v7 for entity IDs; v7 sorts by creation time.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

// applyPragmas sets connection options.
func applyPragmas(db *sql.DB, busyTimeout int) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout),
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	return nil
}
