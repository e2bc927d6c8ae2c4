package db

// SchemaVersion is the current database schema version
const SchemaVersion = 3

const schema = `
-- Cached court listings, replaced wholesale on every successful fetch
CREATE TABLE IF NOT EXISTS courts (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    latitude TEXT NOT NULL DEFAULT '',
    longitude TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    district TEXT NOT NULL DEFAULT '',
    number_of_baskets INTEGER NOT NULL DEFAULT 0,
    is_closed_court INTEGER NOT NULL DEFAULT 0,
    terrain TEXT NOT NULL DEFAULT '',
    is_paid INTEGER NOT NULL DEFAULT 0,
    image_url TEXT NOT NULL DEFAULT '',
    fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_courts_name ON courts(name);

-- Key/value sync bookkeeping (last_sync, server_url)
CREATE TABLE IF NOT EXISTS sync_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const schemaInfoDDL = `CREATE TABLE IF NOT EXISTS schema_info (key TEXT PRIMARY KEY, value TEXT NOT NULL)`

// Migration defines a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all migrations in order
var Migrations = []Migration{
	{
		Version:     2,
		Description: "Add image_url to courts",
		SQL:         `ALTER TABLE courts ADD COLUMN image_url TEXT NOT NULL DEFAULT '';`,
	},
	{
		Version:     3,
		Description: "Add sync_state table",
		SQL: `CREATE TABLE IF NOT EXISTS sync_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`,
	},
}
