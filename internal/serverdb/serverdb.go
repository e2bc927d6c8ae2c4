// Package serverdb is the sqlite store behind courts-server.
package serverdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// ServerDB is the court store. It holds a single connection: sqlite allows
// one writer, and ":memory:" databases live only as long as their connection.
type ServerDB struct {
	conn *sql.DB
	path string
}

// pragmas run on every open. A failure in the required ones aborts Open.
var pragmas = []struct {
	sql      string
	required bool
}{
	{"PRAGMA journal_mode=WAL", true},
	{"PRAGMA busy_timeout=5000", true},
	{"PRAGMA foreign_keys=ON", true},
	{"PRAGMA synchronous=NORMAL", false},
}

// Open opens or creates the database at dbPath and brings its schema up to
// ServerSchemaVersion.
func Open(dbPath string) (*ServerDB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := conn.Exec(p.sql); err != nil && p.required {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", p.sql, err)
		}
	}
	if _, err := conn.Exec(serverSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	db := &ServerDB{conn: conn, path: dbPath}
	if _, err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Path is the file the store was opened from.
func (db *ServerDB) Path() string {
	return db.path
}

// Ping checks the connection is alive.
func (db *ServerDB) Ping() error {
	return db.conn.Ping()
}

// Close folds the WAL back into the main file and closes the connection.
func (db *ServerDB) Close() error {
	db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return db.conn.Close()
}

// RunMigrations applies every migration newer than the recorded version,
// each in its own transaction together with the version bump. It returns
// how many ran.
func (db *ServerDB) RunMigrations() (int, error) {
	current := db.SchemaVersion()
	ran := 0
	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		if err := db.migrate(m); err != nil {
			return ran, fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		ran++
	}
	if current < ServerSchemaVersion {
		if err := setSchemaVersion(db.conn, ServerSchemaVersion); err != nil {
			return ran, err
		}
	}
	return ran, nil
}

func (db *ServerDB) migrate(m Migration) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	if err := setSchemaVersion(tx, m.Version); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion is the recorded schema version, 0 for a new database.
func (db *ServerDB) SchemaVersion() int {
	var raw string
	if err := db.conn.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&raw); err != nil {
		return 0
	}
	v, _ := strconv.Atoi(raw)
	return v
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func setSchemaVersion(e execer, version int) error {
	_, err := e.Exec(`INSERT INTO schema_info (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(version))
	if err != nil {
		return fmt.Errorf("set schema version %d: %w", version, err)
	}
	return nil
}
