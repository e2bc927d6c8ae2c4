package serverdb

// ServerSchemaVersion is the current server database schema version
const ServerSchemaVersion = 2

const serverSchema = `
CREATE TABLE IF NOT EXISTS courts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    latitude TEXT NOT NULL DEFAULT '',
    longitude TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    district TEXT NOT NULL DEFAULT '',
    number_of_baskets INTEGER NOT NULL DEFAULT 0,
    is_closed_court INTEGER NOT NULL DEFAULT 0,
    terrain TEXT NOT NULL DEFAULT '',
    is_paid INTEGER NOT NULL DEFAULT 0,
    image_url TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_courts_district ON courts(district);
`

// Migration defines a server database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all server database migrations in order
var Migrations = []Migration{
	{
		Version:     2,
		Description: "Add images table for uploaded pictures",
		SQL: `CREATE TABLE IF NOT EXISTS images (
			name TEXT PRIMARY KEY,
			court_id INTEGER,
			content_type TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (court_id) REFERENCES courts(id) ON DELETE SET NULL
		);
		CREATE INDEX IF NOT EXISTS idx_images_court ON images(court_id);`,
	},
}
