package storage

// ---------------------------------------------------------------------------
// Schema version
// ---------------------------------------------------------------------------

// SchemaVersion is the current database schema version.
const SchemaVersion = 2

// schemaSQL creates the catalog and search-log tables.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS portfolios (
    slug            TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    document        BLOB NOT NULL,
    checksum        TEXT NOT NULL,
    node_count      INTEGER NOT NULL DEFAULT 0,
    edge_count      INTEGER NOT NULL DEFAULT 0,
    building_count  INTEGER NOT NULL DEFAULT 0,
    imported_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_portfolios_buildings ON portfolios(building_count DESC, title);

CREATE TABLE IF NOT EXISTS searches (
    id           TEXT PRIMARY KEY,
    session_id   TEXT NOT NULL,
    slug         TEXT NOT NULL,
    query        TEXT NOT NULL,
    match_count  INTEGER NOT NULL DEFAULT 0,
    outcome      TEXT NOT NULL,
    created_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_searches_slug ON searches(slug, created_at DESC);
`

// GetSchema returns the base SQL schema.
func GetSchema() string {
	return schemaSQL
}

// ---------------------------------------------------------------------------
// Migration support
// ---------------------------------------------------------------------------

// Migration describes a single schema migration that can be applied to the
// database. Migrations are ordered by Version and are idempotent.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the ordered list of all schema migrations.
// Apply them sequentially; skip any whose Version is already recorded
// in the schema_migrations table.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: portfolios, searches",
		SQL:         schemaSQL,
	},
	{
		Version:     2,
		Description: "Record the source location each portfolio was imported from",
		SQL:         `ALTER TABLE portfolios ADD COLUMN source TEXT NOT NULL DEFAULT '';`,
	},
}
