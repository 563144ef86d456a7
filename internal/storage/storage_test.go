package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func save(t *testing.T, s *Storage, slug, title string, buildings int, doc string) bool {
	t.Helper()
	changed, err := s.SavePortfolio(context.Background(), &PortfolioRecord{
		Slug:          slug,
		Title:         title,
		Source:        slug + ".json",
		NodeCount:     2,
		EdgeCount:     1,
		BuildingCount: buildings,
	}, []byte(doc))
	require.NoError(t, err)
	return changed
}

func TestMigrations(t *testing.T) {
	s := openTemp(t)
	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := New(path)
	require.NoError(t, err)
	save(t, s, "jane", "Jane Doe's portfolio", 3, `{"title":"a"}`)
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.GetPortfolio(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe's portfolio", rec.Title)
}

func TestSavePortfolio_ChecksumDedup(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	assert.True(t, save(t, s, "jane", "Jane", 3, `{"title":"a"}`))
	assert.False(t, save(t, s, "jane", "Jane", 3, `{"title":"a"}`))
	assert.True(t, save(t, s, "jane", "Jane", 4, `{"title":"b"}`))

	rec, err := s.GetPortfolio(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, Checksum([]byte(`{"title":"b"}`)), rec.Checksum)
	assert.Equal(t, 4, rec.BuildingCount)
	assert.Equal(t, "jane.json", rec.Source)
	assert.False(t, rec.ImportedAt.IsZero())

	doc, err := s.Document(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"b"}`, string(doc))
}

func TestNotFound(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, err := s.GetPortfolio(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Document(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeletePortfolio(ctx, "nobody"), ErrNotFound)
}

func TestRankByBuildingCount(t *testing.T) {
	s := openTemp(t)
	save(t, s, "small", "Small", 1, `1`)
	save(t, s, "big", "Big", 12, `2`)
	save(t, s, "mid-b", "Mid B", 5, `3`)
	save(t, s, "mid-a", "Mid A", 5, `4`)

	ranked, err := s.RankByBuildingCount(context.Background(), 2)
	require.NoError(t, err)
	var slugs []string
	for _, r := range ranked {
		slugs = append(slugs, r.Slug)
	}
	assert.Equal(t, []string{"big", "mid-a", "mid-b"}, slugs)

	all, err := s.ListPortfolios(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Big", all[0].Title)
}

func TestSearchLog(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	save(t, s, "jane", "Jane", 1, `1`)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, q := range []string{"jane", "zzz", "st"} {
		rec := &SearchRecord{
			SessionID:  "sess",
			Slug:       "jane",
			Query:      q,
			MatchCount: i,
			Outcome:    "single",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.LogSearch(ctx, rec))
		assert.NotEmpty(t, rec.ID)
	}

	recent, err := s.RecentSearches(ctx, "jane", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "st", recent[0].Query)
	assert.Equal(t, "zzz", recent[1].Query)

	st, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &CatalogStats{Portfolios: 1, Buildings: 1, Searches: 3}, st)

	require.NoError(t, s.DeletePortfolio(ctx, "jane"))
	recent, err = s.RecentSearches(ctx, "jane", 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "jane-doe-s-portfolio", Slug("Jane Doe's portfolio"))
	assert.Equal(t, "boshes-1", Slug("  BOSHES_1 "))
	assert.Equal(t, "", Slug("???"))
}
