// db.go
//
// Database bootstrap for the bowling server.
// Responsibilities:
//   - Opening the SQLite database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the embedded migrations (assets/sql) before the store is used.

package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/robalobadob/bowling/assets"
	"github.com/robalobadob/bowling/internal/store"
)

/**
 * openDB opens (and creates if missing) a SQLite database file.
 *
 * - Ensures parent directory exists for relative paths (e.g. ./data/bowling.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys; write transactions take the lock up front.
 */
func openDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

// openSQLiteStore opens, migrates and wraps the database at path.
func openSQLiteStore(path string) (store.Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db, assets.Migrations, assets.MigrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store.NewSQLiteStore(db), nil
}
