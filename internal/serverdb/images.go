package serverdb

import (
	"database/sql"
	"fmt"
	"time"
)

// Image records an uploaded picture. CourtID is nil for pictures uploaded on
// their own.
type Image struct {
	Name        string
	CourtID     *int
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// RecordImage stores metadata for a picture written to the image directory.
func (db *ServerDB) RecordImage(img Image) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO images (name, court_id, content_type, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		img.Name, img.CourtID, img.ContentType, img.Size, img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record image: %w", err)
	}
	return nil
}

// GetImage returns the metadata for name, or nil when it is unknown.
func (db *ServerDB) GetImage(name string) (*Image, error) {
	img := &Image{}
	var courtID sql.NullInt64
	err := db.conn.QueryRow(
		`SELECT name, court_id, content_type, size, created_at FROM images WHERE name = ?`, name,
	).Scan(&img.Name, &courtID, &img.ContentType, &img.Size, &img.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	if courtID.Valid {
		id := int(courtID.Int64)
		img.CourtID = &id
	}
	return img, nil
}
