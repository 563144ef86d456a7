package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a catalog entry does not exist.
var ErrNotFound = errors.New("storage: not found")

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

// PortfolioRecord describes one imported portfolio document.
type PortfolioRecord struct {
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Source        string    `json:"source,omitempty"`
	Checksum      string    `json:"checksum"`
	NodeCount     int       `json:"node_count"`
	EdgeCount     int       `json:"edge_count"`
	BuildingCount int       `json:"building_count"`
	ImportedAt    time.Time `json:"imported_at"`
}

// SearchRecord is one logged search submission.
type SearchRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Slug       string    `json:"slug"`
	Query      string    `json:"query"`
	MatchCount int       `json:"match_count"`
	Outcome    string    `json:"outcome"`
	CreatedAt  time.Time `json:"created_at"`
}

// CatalogStats summarises the catalog.
type CatalogStats struct {
	Portfolios int `json:"portfolios"`
	Buildings  int `json:"buildings"`
	Searches   int `json:"searches"`
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// Checksum returns the hex BLAKE3-256 digest of a document.
func Checksum(document []byte) string {
	sum := blake3.Sum256(document)
	return hex.EncodeToString(sum[:])
}

// Documents are stored zstd-compressed. EncodeAll and DecodeAll are safe
// for concurrent use.
var (
	docEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	docDecoder, _ = zstd.NewReader(nil)
)

func compressDocument(document []byte) []byte {
	return docEncoder.EncodeAll(document, make([]byte, 0, len(document)/4))
}

func decompressDocument(blob []byte) ([]byte, error) {
	return docDecoder.DecodeAll(blob, nil)
}

// Slug turns a title or file name into a URL-safe catalog key.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Storage
// ---------------------------------------------------------------------------

// Storage is a thread-safe wrapper around a SQLite database holding the
// portfolio catalog and the search log.
type Storage struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// ============================= LIFECYCLE ==================================

// New opens (or creates) the SQLite database at dbPath, applies the
// recommended PRAGMAs, runs any pending migrations and returns a ready
// *Storage.
func New(dbPath string) (*Storage, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open db %q: %w", dbPath, err)
	}

	// Only one writer at a time for SQLite.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("storage: set pragma %q: %w", p, err)
		}
	}

	s := &Storage{db: conn, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// ============================ MIGRATIONS ==================================

// migrate ensures the schema_migrations table exists, then applies every
// unapplied Migration from the package-level Migrations slice.
func (s *Storage) migrate() error {
	const createMigTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		applied_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		description TEXT
	)`
	if _, err := s.db.Exec(createMigTable); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range Migrations {
		var exists int
		err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration v%d: %w", m.Version, err)
		}
		if exists > 0 {
			continue
		}

		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("apply migration v%d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			return fmt.Errorf("record migration v%d: %w", m.Version, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *Storage) SchemaVersion(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("storage: schema version: %w", err)
	}
	return int(v.Int64), nil
}

// ======================== PORTFOLIO OPERATIONS ============================

const portfolioColumns = `slug, title, source, checksum, node_count, edge_count, building_count, imported_at`

// SavePortfolio upserts a portfolio document. The checksum is computed from
// document. changed is false when an identical document is already stored
// under the same slug, in which case nothing is written.
func (s *Storage) SavePortfolio(ctx context.Context, rec *PortfolioRecord, document []byte) (changed bool, err error) {
	if rec.Slug == "" {
		return false, fmt.Errorf("storage: save portfolio: empty slug")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Checksum(document)

	var existing string
	err = s.db.QueryRowContext(ctx, "SELECT checksum FROM portfolios WHERE slug = ?", rec.Slug).Scan(&existing)
	switch {
	case err == nil && existing == sum:
		rec.Checksum = sum
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("storage: lookup portfolio %q: %w", rec.Slug, err)
	}

	rec.Checksum = sum
	rec.ImportedAt = s.now()

	const q = `INSERT OR REPLACE INTO portfolios
		(slug, title, source, checksum, node_count, edge_count, building_count, imported_at, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		rec.Slug, rec.Title, rec.Source, rec.Checksum,
		rec.NodeCount, rec.EdgeCount, rec.BuildingCount, rec.ImportedAt, compressDocument(document),
	)
	if err != nil {
		return false, fmt.Errorf("storage: save portfolio %q: %w", rec.Slug, err)
	}
	return true, nil
}

// GetPortfolio returns the catalog entry for slug.
func (s *Storage) GetPortfolio(ctx context.Context, slug string) (*PortfolioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+portfolioColumns+" FROM portfolios WHERE slug = ?", slug)
	rec, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: portfolio %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get portfolio %q: %w", slug, err)
	}
	return rec, nil
}

// Document returns the stored document for slug.
func (s *Storage) Document(ctx context.Context, slug string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT document FROM portfolios WHERE slug = ?", slug).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: portfolio %q: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get document %q: %w", slug, err)
	}
	doc, err := decompressDocument(blob)
	if err != nil {
		return nil, fmt.Errorf("storage: decompress document %q: %w", slug, err)
	}
	return doc, nil
}

// ListPortfolios returns every catalog entry ordered by title.
func (s *Storage) ListPortfolios(ctx context.Context) ([]PortfolioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+portfolioColumns+" FROM portfolios ORDER BY title, slug")
	if err != nil {
		return nil, fmt.Errorf("storage: list portfolios: %w", err)
	}
	return scanPortfolios(rows)
}

// RankByBuildingCount returns portfolios with at least minBuildings distinct
// buildings, largest first. Ties are ordered by title.
func (s *Storage) RankByBuildingCount(ctx context.Context, minBuildings int) ([]PortfolioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = "SELECT " + portfolioColumns + ` FROM portfolios
		WHERE building_count >= ?
		ORDER BY building_count DESC, title, slug`
	rows, err := s.db.QueryContext(ctx, q, minBuildings)
	if err != nil {
		return nil, fmt.Errorf("storage: rank portfolios: %w", err)
	}
	return scanPortfolios(rows)
}

// DeletePortfolio removes a catalog entry and its search log.
func (s *Storage) DeletePortfolio(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx (delete portfolio): %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM portfolios WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("storage: delete portfolio %q: %w", slug, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage: portfolio %q: %w", slug, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM searches WHERE slug = ?", slug); err != nil {
		return fmt.Errorf("storage: delete searches of %q: %w", slug, err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPortfolio(row rowScanner) (*PortfolioRecord, error) {
	rec := &PortfolioRecord{}
	if err := row.Scan(
		&rec.Slug, &rec.Title, &rec.Source, &rec.Checksum,
		&rec.NodeCount, &rec.EdgeCount, &rec.BuildingCount, &rec.ImportedAt,
	); err != nil {
		return nil, err
	}
	return rec, nil
}

// scanPortfolios is a shared helper that scans rows into []PortfolioRecord.
func scanPortfolios(rows *sql.Rows) ([]PortfolioRecord, error) {
	defer rows.Close()
	result := make([]PortfolioRecord, 0)
	for rows.Next() {
		rec, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan portfolio row: %w", err)
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

// ========================== SEARCH OPERATIONS =============================

// LogSearch appends a search submission to the log. ID and CreatedAt are
// filled in when empty.
func (s *Storage) LogSearch(ctx context.Context, rec *SearchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	const q = `INSERT INTO searches
		(id, session_id, slug, query, match_count, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.SessionID, rec.Slug, rec.Query, rec.MatchCount, rec.Outcome, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: log search: %w", err)
	}
	return nil
}

// RecentSearches returns up to limit searches for slug, newest first.
func (s *Storage) RecentSearches(ctx context.Context, slug string, limit int) ([]SearchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	const q = `SELECT id, session_id, slug, query, match_count, outcome, created_at
		FROM searches WHERE slug = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, slug, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: recent searches of %q: %w", slug, err)
	}
	defer rows.Close()

	result := make([]SearchRecord, 0)
	for rows.Next() {
		var r SearchRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Slug, &r.Query, &r.MatchCount, &r.Outcome, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan search row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetStats summarises the catalog.
func (s *Storage) GetStats(ctx context.Context) (*CatalogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &CatalogStats{}
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(building_count), 0) FROM portfolios",
	).Scan(&st.Portfolios, &st.Buildings)
	if err != nil {
		return nil, fmt.Errorf("storage: count portfolios: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM searches").Scan(&st.Searches); err != nil {
		return nil, fmt.Errorf("storage: count searches: %w", err)
	}
	return st, nil
}
