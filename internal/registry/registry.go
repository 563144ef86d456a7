// Package registry holds the portfolios the server renders. A portfolio
// that failed to load stays registered with its error so the page can
// surface the message instead of a graph.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vyuha/portfolioviz/internal/graph"
	"github.com/vyuha/portfolioviz/internal/layout"
	"github.com/vyuha/portfolioviz/internal/metrics"
	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/source"
	"github.com/vyuha/portfolioviz/internal/storage"
)

// ErrNotFound is returned for unknown slugs.
var ErrNotFound = errors.New("registry: portfolio not found")

// Entry is one registered portfolio. Exactly one of Model and Err is set.
type Entry struct {
	Slug      string
	Location  string
	Portfolio *portfolio.Portfolio
	Model     *graph.Model
	Layout    *layout.Layout
	Info      portfolio.Info
	Checksum  string
	LoadedAt  time.Time
	Err       error
}

// OK reports whether the entry has a graph.
func (e *Entry) OK() bool { return e.Err == nil && e.Model != nil }

// Title is the portfolio title, or the location when loading failed.
func (e *Entry) Title() string {
	if e.Portfolio != nil {
		return e.Portfolio.Title
	}
	return e.Location
}

// Message is the page status line: counts on success, the failure message
// otherwise.
func (e *Entry) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Model.StatusLine()
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// Loader turns source locations into entries.
type Loader struct {
	Sources source.Options
	Builder graph.Builder
	Layout  layout.Config
	Metrics *metrics.Registry
	TopN    int
}

// Load fetches, builds and lays out one portfolio. It never returns nil:
// failures are recorded on the entry.
func (l *Loader) Load(ctx context.Context, slug, location string) *Entry {
	start := time.Now()
	e := &Entry{Slug: slug, Location: location, LoadedAt: start}

	p, raw, err := source.LoadURI(ctx, location, l.Sources)
	if err == nil {
		e.Portfolio = p
		e.Checksum = storage.Checksum(raw)
		e.Model, err = l.Builder.Build(p)
	}
	if err != nil {
		e.Err = err
		l.record(resultLabel(err), start)
		slog.Error("portfolio load failed", "slug", slug, "location", location, "error", err)
		return e
	}

	e.Layout = layout.Compute(e.Model, l.Layout)
	e.Info = portfolio.Summarize(p, l.TopN)
	l.record("ok", start)
	if l.Metrics != nil {
		l.Metrics.SetPortfolioSize(slug, e.Model.NodeCount(), e.Model.EdgeCount())
	}
	slog.Info("portfolio loaded",
		"slug", slug,
		"title", p.Title,
		"nodes", e.Model.NodeCount(),
		"edges", e.Model.EdgeCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return e
}

func (l *Loader) record(result string, start time.Time) {
	if l.Metrics != nil {
		l.Metrics.RecordPortfolioLoad(result, time.Since(start))
	}
}

func resultLabel(err error) string {
	if code := portfolio.Code(err); code != "" {
		return strings.ToLower(code)
	}
	return "error"
}

// SlugFor derives a slug from a source location: the catalog slug for
// catalog: URIs, otherwise the file name without extension.
func SlugFor(location string) string {
	if s, ok := strings.CutPrefix(location, "catalog:"); ok {
		return s
	}
	base := path.Base(strings.TrimRight(location, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	return storage.Slug(base)
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Registry is a concurrency-safe slug → entry map.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	owners  map[string]string // slug -> location that claimed it
	metrics *metrics.Registry
}

// New creates an empty registry.
func New(m *metrics.Registry) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		owners:  make(map[string]string),
		metrics: m,
	}
}

// Claim returns the slug location is registered under, claiming one on
// first use. When SlugFor(location) already belongs to another location a
// numeric suffix is added, so two documents never share a slug.
func (r *Registry) Claim(location string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for slug, owner := range r.owners {
		if owner == location {
			return slug
		}
	}
	base := SlugFor(location)
	slug := base
	for n := 2; ; n++ {
		if _, taken := r.owners[slug]; !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	r.owners[slug] = location
	if slug != base {
		slog.Warn("portfolio slug already in use, renamed",
			"location", location,
			"slug", slug,
			"conflicts_with", r.owners[base],
		)
	}
	return slug
}

// SlugOf returns the slug claimed by location, if any.
func (r *Registry) SlugOf(location string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for slug, owner := range r.owners {
		if owner == location {
			return slug, true
		}
	}
	return "", false
}

// Put registers or replaces an entry.
func (r *Registry) Put(e *Entry) {
	r.mu.Lock()
	r.entries[e.Slug] = e
	loaded := 0
	for _, x := range r.entries {
		if x.OK() {
			loaded++
		}
	}
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.PortfoliosLoaded.Set(float64(loaded))
	}
}

// Get returns the entry for slug.
func (r *Registry) Get(slug string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// List returns every entry: loaded ones by descending building count, then
// failed ones, ties broken by title.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.OK() != b.OK() {
			return a.OK()
		}
		if a.Info.BuildingCount != b.Info.BuildingCount {
			return a.Info.BuildingCount > b.Info.BuildingCount
		}
		if a.Title() != b.Title() {
			return a.Title() < b.Title()
		}
		return a.Slug < b.Slug
	})
	return out
}

// Ranked returns loaded entries with at least minBuildings buildings.
func (r *Registry) Ranked(minBuildings int) []*Entry {
	var out []*Entry
	for _, e := range r.List() {
		if e.OK() && e.Info.BuildingCount >= minBuildings {
			out = append(out, e)
		}
	}
	return out
}

// LoadAll loads every location concurrently and registers the results.
// Slugs are claimed in input order before any load starts, so colliding
// names resolve the same way on every run. It returns the number of failed
// loads.
func (r *Registry) LoadAll(ctx context.Context, l *Loader, locations []string) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	slugs := make([]string, len(locations))
	for i, loc := range locations {
		slugs[i] = r.Claim(loc)
	}
	for i, loc := range locations {
		wg.Add(1)
		go func(slug, loc string) {
			defer wg.Done()
			e := l.Load(ctx, slug, loc)
			r.Put(e)
			if !e.OK() {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(slugs[i], loc)
	}
	wg.Wait()
	return failed
}

// LoadCatalog registers every portfolio stored in the catalog. l.Sources.Catalog
// must read from store.
func (r *Registry) LoadCatalog(ctx context.Context, l *Loader, store *storage.Storage) (int, error) {
	recs, err := store.ListPortfolios(ctx)
	if err != nil {
		return 0, err
	}
	locations := make([]string, 0, len(recs))
	for _, rec := range recs {
		locations = append(locations, "catalog:"+rec.Slug)
	}
	return r.LoadAll(ctx, l, locations), nil
}
