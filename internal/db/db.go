// Package db is the local court cache: a sqlite file under the data
// directory holding the last fetched court set, so listings can be shown
// when the service is unreachable.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const dbFile = "courts.db"

// DB wraps the database connection
type DB struct {
	conn    *sql.DB
	dataDir string
}

// Open opens (creating if needed) the cache in dataDir and runs any pending
// migrations
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, dbFile)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the TUI read while a CLI command refreshes the cache
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	db := &DB{conn: conn, dataDir: dataDir}
	if err := db.withWriteLock(db.initSchema); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database
func (db *DB) Close() error {
	return db.conn.Close()
}

// DataDir returns the directory holding the database file
func (db *DB) DataDir() string {
	return db.dataDir
}

// Path returns the database file path
func (db *DB) Path() string {
	return filepath.Join(db.dataDir, dbFile)
}

// withWriteLock executes fn while holding an exclusive write lock.
// This prevents concurrent writes from multiple processes.
func (db *DB) withWriteLock(fn func() error) error {
	locker := newWriteLocker(db.dataDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

func (db *DB) initSchema() error {
	if _, err := db.conn.Exec(schemaInfoDDL); err != nil {
		return fmt.Errorf("create schema_info: %w", err)
	}
	version, err := getSchemaVersion(db.conn)
	if err != nil {
		return err
	}
	if version == 0 {
		exists, err := tableExists(db.conn, "courts")
		if err != nil {
			return err
		}
		if !exists {
			if _, err := db.conn.Exec(schema); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
			return setSchemaVersion(db.conn, SchemaVersion)
		}
		// A courts table without schema_info predates versioning
		if err := setSchemaVersion(db.conn, 1); err != nil {
			return err
		}
	}
	_, err = runMigrations(db.conn)
	return err
}
