package serverdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/marcus/courts/internal/models"
)

// ErrCourtNotFound is returned when an update names an id that does not exist
var ErrCourtNotFound = errors.New("court not found")

const courtColumns = `id, name, latitude, longitude, description, district,
	number_of_baskets, is_closed_court, terrain, is_paid, image_url`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourt(row rowScanner) (models.Court, error) {
	var c models.Court
	var id int
	err := row.Scan(&id, &c.Name, &c.Latitude, &c.Longitude, &c.Description, &c.District,
		&c.NumberOfBaskets, &c.IsClosedCourt, &c.Terrain, &c.IsPaid, &c.ImageURL)
	if err != nil {
		return models.Court{}, err
	}
	c.ID = models.IntID(id)
	return c, nil
}

// ListCourts returns every court ordered by id.
func (db *ServerDB) ListCourts() ([]models.Court, error) {
	rows, err := db.conn.Query(`SELECT ` + courtColumns + ` FROM courts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	defer rows.Close()

	courts := []models.Court{}
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan court: %w", err)
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

// GetCourt returns a court by id, or nil when there is none.
func (db *ServerDB) GetCourt(id int) (*models.Court, error) {
	c, err := scanCourt(db.conn.QueryRow(`SELECT `+courtColumns+` FROM courts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get court: %w", err)
	}
	return &c, nil
}

// SaveCourt inserts a draft or replaces the court with the same id. Courts
// sent with an id that is not stored are inserted under that id. The stored
// court is returned.
func (db *ServerDB) SaveCourt(c models.Court) (models.Court, error) {
	now := time.Now().UTC()
	if c.ID == nil {
		res, err := db.conn.Exec(
			`INSERT INTO courts (name, latitude, longitude, description, district,
				number_of_baskets, is_closed_court, terrain, is_paid, image_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Name, c.Latitude, c.Longitude, c.Description, c.District,
			c.NumberOfBaskets, c.IsClosedCourt, c.Terrain, c.IsPaid, c.ImageURL, now, now,
		)
		if err != nil {
			return models.Court{}, fmt.Errorf("insert court: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return models.Court{}, fmt.Errorf("insert court id: %w", err)
		}
		c.ID = models.IntID(int(id))
		return c, nil
	}

	_, err := db.conn.Exec(
		`INSERT INTO courts (id, name, latitude, longitude, description, district,
			number_of_baskets, is_closed_court, terrain, is_paid, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			description = excluded.description,
			district = excluded.district,
			number_of_baskets = excluded.number_of_baskets,
			is_closed_court = excluded.is_closed_court,
			terrain = excluded.terrain,
			is_paid = excluded.is_paid,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at`,
		*c.ID, c.Name, c.Latitude, c.Longitude, c.Description, c.District,
		c.NumberOfBaskets, c.IsClosedCourt, c.Terrain, c.IsPaid, c.ImageURL, now, now,
	)
	if err != nil {
		return models.Court{}, fmt.Errorf("upsert court %d: %w", *c.ID, err)
	}
	return c, nil
}

// SetImageURL points a stored court at an uploaded picture.
func (db *ServerDB) SetImageURL(id int, url string) error {
	res, err := db.conn.Exec(`UPDATE courts SET image_url = ?, updated_at = ? WHERE id = ?`, url, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set image url: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCourtNotFound
	}
	return nil
}

// DeleteCourt removes a court. It reports false when no court had the id.
func (db *ServerDB) DeleteCourt(id int) (bool, error) {
	res, err := db.conn.Exec(`DELETE FROM courts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete court: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete court: %w", err)
	}
	return n > 0, nil
}

// CountCourts returns the number of stored courts.
func (db *ServerDB) CountCourts() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM courts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courts: %w", err)
	}
	return n, nil
}

// DemoCourt is the listing SeedDemo stores in an empty database
var DemoCourt = models.Court{
	Name:            "Valpurinpuisto school",
	Latitude:        "60.193734",
	Longitude:       "24.898878",
	District:        "Meilahti",
	NumberOfBaskets: 2,
	Terrain:         string(models.TerrainAsphalt),
}

// SeedDemo stores DemoCourt when there are no courts yet. It reports whether a
// court was inserted.
func (db *ServerDB) SeedDemo() (bool, error) {
	n, err := db.CountCourts()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := db.SaveCourt(DemoCourt); err != nil {
		return false, err
	}
	return true, nil
}
