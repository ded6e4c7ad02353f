package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// Table DDL for schema version 1. Cascades are performed by the integrity
// engine; foreign keys only guard against a missed step.
const (
	createUsers = `CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL,
    hash TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL,
    settings TEXT NOT NULL DEFAULT '{}'
);`

	createBinders = `CREATE TABLE IF NOT EXISTS binders (
    binder_id TEXT PRIMARY KEY,
    author TEXT NOT NULL,
    image TEXT NOT NULL DEFAULT '',
    is_favorite INTEGER NOT NULL DEFAULT 0
);`

	createCategories = `CREATE TABLE IF NOT EXISTS categories (
    category_id TEXT PRIMARY KEY,
    image TEXT NOT NULL DEFAULT ''
);`

	createPictograms = `CREATE TABLE IF NOT EXISTS pictograms (
    pictogram_id TEXT PRIMARY KEY,
    binder_id TEXT NOT NULL,
    image TEXT NOT NULL DEFAULT '',
    sound TEXT NOT NULL DEFAULT '',
    is_favorite INTEGER NOT NULL DEFAULT 0,
    ord INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (binder_id) REFERENCES binders(binder_id)
);`

	createProperties = `CREATE TABLE IF NOT EXISTS properties (
    entity_id TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    language TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (entity_id, language, key)
);`

	createCategoryPictograms = `CREATE TABLE IF NOT EXISTS category_pictograms (
    category_id TEXT NOT NULL,
    pictogram_id TEXT NOT NULL,
    PRIMARY KEY (category_id, pictogram_id),
    FOREIGN KEY (category_id) REFERENCES categories(category_id),
    FOREIGN KEY (pictogram_id) REFERENCES pictograms(pictogram_id)
);`

	createBinderUsers = `CREATE TABLE IF NOT EXISTS binder_users (
    binder_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    PRIMARY KEY (binder_id, user_id),
    FOREIGN KEY (binder_id) REFERENCES binders(binder_id),
    FOREIGN KEY (user_id) REFERENCES users(user_id)
);`

	createHistory = `CREATE TABLE IF NOT EXISTS history (
    history_id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    action TEXT NOT NULL,
    performed_by TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    changes TEXT NOT NULL
);`

	createSettings = `CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`
)

// tableDDL maps each declared collection to its CREATE TABLE statement.
var tableDDL = map[string]string{
	types.CollectionUsers:              createUsers,
	types.CollectionBinders:            createBinders,
	types.CollectionCategories:         createCategories,
	types.CollectionPictograms:         createPictograms,
	types.CollectionProperties:         createProperties,
	types.CollectionCategoryPictograms: createCategoryPictograms,
	types.CollectionBinderUsers:        createBinderUsers,
	types.CollectionHistory:            createHistory,
	types.CollectionSettings:           createSettings,
}

// schemaStatements renders the DDL for schema: tables in declaration order,
// then the unique and plain indexes the declaration names.
func schemaStatements(schema types.Schema) ([]string, error) {
	var stmts []string
	var indexes []string
	for _, c := range schema.Collections {
		ddl, ok := tableDDL[c.Name]
		if !ok {
			return nil, fmt.Errorf("no table DDL for collection %q", c.Name)
		}
		stmts = append(stmts, ddl)
		for _, u := range c.Unique {
			indexes = append(indexes, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s(%s);",
				u.Name, c.Name, strings.Join(u.Columns, ", ")))
		}
		for _, ix := range c.Indexes {
			indexes = append(indexes, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s);",
				ix.Name, c.Name, strings.Join(ix.Columns, ", ")))
		}
	}
	return append(stmts, indexes...), nil
}

// applySchema creates the layout on a fresh database and stamps
// user_version. A database stamped with another version is rejected.
func applySchema(db *sql.DB, schema types.Schema) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version != 0 && version != schema.Version {
		return fmt.Errorf("%w: database has version %d, want %d", types.ErrSchemaVersion, version, schema.Version)
	}

	stmts, err := schemaStatements(schema)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schema.Version)); err != nil {
		return fmt.Errorf("stamping schema version: %w", err)
	}
	return tx.Commit()
}
