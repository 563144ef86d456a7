// Package watch reloads portfolios whose local document files change.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyuha/portfolioviz/internal/registry"
	"github.com/vyuha/portfolioviz/internal/source"
	"github.com/vyuha/portfolioviz/internal/storage"
)

// ---------------------------------------------------------------------------
// Watcher polls local portfolio files and replaces registry entries whose
// bytes changed. Remote sources are never polled.
// ---------------------------------------------------------------------------

// Watcher re-loads file-backed portfolios into a registry.
type Watcher struct {
	registry *registry.Registry
	loader   *registry.Loader
	interval time.Duration

	mu    sync.Mutex
	files map[string]string // slug -> path
	sums  map[string]string // slug -> checksum last loaded, "" when unreadable

	done chan struct{}
	wg   sync.WaitGroup

	// stats
	polls     atomic.Int64
	reloads   atomic.Int64
	readErrs  atomic.Int64
	startedAt time.Time
}

// New creates a watcher. Call Add (or AddLocations) and then Start.
func New(reg *registry.Registry, loader *registry.Loader, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		registry: reg,
		loader:   loader,
		interval: interval,
		files:    make(map[string]string),
		sums:     make(map[string]string),
		done:     make(chan struct{}),
	}
}

// Add watches path as the document of slug. The registry's current
// checksum for slug is the baseline, so an unchanged file is not reloaded.
func (w *Watcher) Add(slug, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[slug] = path
	if e, err := w.registry.Get(slug); err == nil && e.OK() {
		w.sums[slug] = e.Checksum
	}
}

// AddLocations watches every location that resolves to a local file and
// returns how many were added.
func (w *Watcher) AddLocations(locations []string) int {
	n := 0
	for _, loc := range locations {
		src, err := source.Open(loc, source.Options{})
		if err != nil {
			continue
		}
		if f, ok := src.(*source.File); ok {
			slug, claimed := w.registry.SlugOf(loc)
			if !claimed {
				slug = w.registry.Claim(loc)
			}
			w.Add(slug, f.Path)
			n++
		}
	}
	return n
}

// Len returns the number of watched files.
func (w *Watcher) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files)
}

// Start begins polling in the background. It returns immediately; polling
// ends when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.startedAt = time.Now().UTC()
	w.wg.Add(1)

	slog.Info("portfolio watcher started", "files", w.Len(), "interval", w.interval.String())

	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				return
			case <-ticker.C:
				w.Poll(ctx)
			}
		}
	}()
}

// Stop signals the watcher to stop and waits for the poll loop to finish.
func (w *Watcher) Stop() {
	select {
	case <-w.done:
		// already closed
	default:
		close(w.done)
	}
	w.wg.Wait()
	slog.Info("portfolio watcher stopped",
		"polls", w.polls.Load(),
		"reloads", w.reloads.Load(),
	)
}

// Poll checks every watched file once and reloads the changed ones. A file
// that becomes unreadable is reloaded too, so its failure is surfaced on
// the entry. It returns the number of reloads.
func (w *Watcher) Poll(ctx context.Context) int {
	w.polls.Add(1)

	w.mu.Lock()
	slugs := make([]string, 0, len(w.files))
	for slug := range w.files {
		slugs = append(slugs, slug)
	}
	w.mu.Unlock()
	sort.Strings(slugs)

	reloaded := 0
	for _, slug := range slugs {
		if ctx.Err() != nil {
			break
		}
		w.mu.Lock()
		path, last := w.files[slug], w.sums[slug]
		w.mu.Unlock()

		sum := ""
		data, err := os.ReadFile(path)
		if err != nil {
			w.readErrs.Add(1)
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("portfolio watcher: read failed", "slug", slug, "path", path, "error", err)
			}
		} else {
			sum = storage.Checksum(data)
		}
		if sum == last {
			continue
		}

		e := w.loader.Load(ctx, slug, path)
		w.registry.Put(e)
		reloaded++
		w.reloads.Add(1)

		w.mu.Lock()
		w.sums[slug] = sum
		w.mu.Unlock()

		slog.Info("portfolio reloaded", "slug", slug, "path", path, "ok", e.OK())
	}
	return reloaded
}

// Status returns a snapshot of the watcher's current state.
func (w *Watcher) Status() Status {
	return Status{
		Files:     w.Len(),
		Polls:     w.polls.Load(),
		Reloads:   w.reloads.Load(),
		ReadErrs:  w.readErrs.Load(),
		StartedAt: w.startedAt,
	}
}

// Status is a JSON-friendly snapshot of watcher state.
type Status struct {
	Files     int       `json:"files"`
	Polls     int64     `json:"polls"`
	Reloads   int64     `json:"reloads"`
	ReadErrs  int64     `json:"read_errors"`
	StartedAt time.Time `json:"started_at"`
}
