package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/marcus/courts/internal/models"
)

const (
	syncKeyLastSync  = "last_sync"
	syncKeyServerURL = "server_url"
)

const courtColumns = `id, name, latitude, longitude, description, district,
	number_of_baskets, is_closed_court, terrain, is_paid, image_url`

// LoadCourts returns every cached court ordered by id
func (db *DB) LoadCourts() ([]models.Court, error) {
	return loadCourts(db.conn)
}

// ReplaceCourts swaps the cached set for courts in one transaction and
// records the sync time
func (db *DB) ReplaceCourts(courts []models.Court) error {
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		if err := ReplaceCourtsTx(tx, courts, time.Now().UTC()); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// DeleteCourt removes one court from the cache. Missing ids are not an error.
func (db *DB) DeleteCourt(id int) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`DELETE FROM courts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete court %d: %w", id, err)
		}
		return nil
	})
}

// LastSync returns when the cache was last replaced. ok is false when it
// never was.
func (db *DB) LastSync() (t time.Time, ok bool, err error) {
	return lastSync(db.conn)
}

// ServerURL returns the service the cache was filled from
func (db *DB) ServerURL() (string, error) {
	v, _, err := getSyncState(db.conn, syncKeyServerURL)
	return v, err
}

// SetServerURL records the service the cache belongs to. Switching services
// drops the cached courts.
func (db *DB) SetServerURL(url string) error {
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		prev, ok, err := getSyncState(tx, syncKeyServerURL)
		if err != nil {
			return err
		}
		if ok && prev == url {
			return nil
		}
		if ok {
			if _, err := tx.Exec(`DELETE FROM courts`); err != nil {
				return fmt.Errorf("clear courts: %w", err)
			}
			if _, err := tx.Exec(`DELETE FROM sync_state WHERE key = ?`, syncKeyLastSync); err != nil {
				return fmt.Errorf("clear last sync: %w", err)
			}
		}
		if err := setSyncState(tx, syncKeyServerURL, url); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// ReplaceCourtsTx deletes all cached courts and inserts courts within tx.
// Drafts (nil id) are skipped.
func ReplaceCourtsTx(tx *sql.Tx, courts []models.Court, at time.Time) error {
	if _, err := tx.Exec(`DELETE FROM courts`); err != nil {
		return fmt.Errorf("clear courts: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO courts (` + courtColumns + `, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := at.Format(time.RFC3339)
	for _, c := range courts {
		if c.ID == nil {
			continue
		}
		_, err := stmt.Exec(*c.ID, c.Name, c.Latitude, c.Longitude, c.Description, c.District,
			c.NumberOfBaskets, c.IsClosedCourt, c.Terrain, c.IsPaid, c.ImageURL, ts)
		if err != nil {
			return fmt.Errorf("insert court %d: %w", *c.ID, err)
		}
	}
	return setSyncState(tx, syncKeyLastSync, ts)
}

func loadCourts(q querier) ([]models.Court, error) {
	rows, err := q.Query(`SELECT ` + courtColumns + ` FROM courts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query courts: %w", err)
	}
	defer rows.Close()

	var courts []models.Court
	for rows.Next() {
		var (
			c  models.Court
			id int
		)
		if err := rows.Scan(&id, &c.Name, &c.Latitude, &c.Longitude, &c.Description, &c.District,
			&c.NumberOfBaskets, &c.IsClosedCourt, &c.Terrain, &c.IsPaid, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("scan court: %w", err)
		}
		c.ID = models.IntID(id)
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func lastSync(q querier) (time.Time, bool, error) {
	v, ok, err := getSyncState(q, syncKeyLastSync)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last sync %q: %w", v, err)
	}
	return t, true, nil
}

func getSyncState(q querier, key string) (string, bool, error) {
	var v string
	err := q.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read sync state %s: %w", key, err)
	}
	return v, true, nil
}

func setSyncState(q querier, key, value string) error {
	_, err := q.Exec(`INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("write sync state %s: %w", key, err)
	}
	return nil
}
