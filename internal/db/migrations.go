package db

import (
	"database/sql"
	"fmt"
	"strconv"
)

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// columnExists checks whether a column exists on a table
func columnExists(q querier, table, column string) (bool, error) {
	rows, err := q.Query(fmt.Sprintf("PRAGMA table_info(%s);", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// tableExists checks whether a table exists in the database
func tableExists(q querier, table string) (bool, error) {
	var count int
	err := q.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// getSchemaVersion returns the stored schema version, 0 when unset
func getSchemaVersion(q querier) (int, error) {
	var version string
	err := q.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	v, err := strconv.Atoi(version)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", version, err)
	}
	return v, nil
}

func setSchemaVersion(q querier, version int) error {
	_, err := q.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`, strconv.Itoa(version))
	if err != nil {
		return fmt.Errorf("set version %d: %w", version, err)
	}
	return nil
}

// runMigrations applies every migration newer than the stored version and
// returns how many ran
func runMigrations(q querier) (int, error) {
	if _, err := q.Exec(schemaInfoDDL); err != nil {
		return 0, fmt.Errorf("create schema_info: %w", err)
	}
	currentVersion, err := getSchemaVersion(q)
	if err != nil {
		return 0, err
	}

	migrationsRun := 0
	for _, migration := range Migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if migration.Version == 2 {
			exists, err := columnExists(q, "courts", "image_url")
			if err != nil {
				return migrationsRun, fmt.Errorf("check column image_url: %w", err)
			}
			if exists {
				if err := setSchemaVersion(q, migration.Version); err != nil {
					return migrationsRun, err
				}
				migrationsRun++
				continue
			}
		}
		if _, err := q.Exec(migration.SQL); err != nil {
			return migrationsRun, fmt.Errorf("migration %d (%s): %w", migration.Version, migration.Description, err)
		}
		if err := setSchemaVersion(q, migration.Version); err != nil {
			return migrationsRun, err
		}
		migrationsRun++
	}
	return migrationsRun, nil
}

// Version returns the schema version recorded in the database
func (db *DB) Version() (int, error) {
	return getSchemaVersion(db.conn)
}
