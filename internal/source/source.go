// Package source retrieves portfolio documents. Every source returns a
// decoded portfolio that has passed the integrity check, or an error
// wrapping exactly one of the portfolio failure kinds.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// Source fetches one portfolio document.
type Source interface {
	// Location names the document in messages, e.g. a path or URL.
	Location() string
	// Fetch returns the raw document bytes.
	Fetch(ctx context.Context) ([]byte, error)
}

// Options carries the collaborators sources may need. Zero values get
// defaults on first use.
type Options struct {
	HTTPClient *http.Client
	S3         ObjectGetter
	AWSRegion  string
	Catalog    Catalog
}

// Open picks a source by URI scheme:
//
//	http://…, https://…   HTTP GET
//	s3://bucket/key       S3 GetObject
//	catalog:slug          stored catalog document
//	file://path, path     local file
func Open(uri string, opts Options) (Source, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return NewHTTP(uri, opts.HTTPClient), nil
	case strings.HasPrefix(uri, "s3://"):
		return NewS3(uri, opts.S3, opts.AWSRegion)
	case strings.HasPrefix(uri, "catalog:"):
		if opts.Catalog == nil {
			return nil, fmt.Errorf("source: %s: no catalog configured", uri)
		}
		return NewCatalog(strings.TrimPrefix(uri, "catalog:"), opts.Catalog), nil
	case strings.HasPrefix(uri, "file://"):
		return NewFile(strings.TrimPrefix(uri, "file://")), nil
	case uri == "":
		return nil, fmt.Errorf("source: empty location")
	default:
		return NewFile(uri), nil
	}
}

// Load fetches, decodes and integrity-checks the document behind src.
func Load(ctx context.Context, src Source) (*portfolio.Portfolio, []byte, error) {
	start := time.Now()
	data, err := src.Fetch(ctx)
	if err != nil {
		slog.Warn("portfolio fetch failed", "location", src.Location(), "error", err)
		return nil, nil, err
	}
	p, err := portfolio.DecodeBytes(data, src.Location())
	if err != nil {
		slog.Warn("portfolio decode failed", "location", src.Location(), "error", err)
		return nil, nil, err
	}
	if err := portfolio.Validate(p); err != nil {
		slog.Warn("portfolio rejected", "location", src.Location(), "error", err)
		return nil, nil, err
	}
	slog.Debug("portfolio loaded",
		"location", src.Location(),
		"nodes", len(p.Nodes),
		"edges", len(p.Edges),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return p, data, nil
}

// LoadURI is Open followed by Load.
func LoadURI(ctx context.Context, uri string, opts Options) (*portfolio.Portfolio, []byte, error) {
	src, err := Open(uri, opts)
	if err != nil {
		return nil, nil, &portfolio.LoadError{Location: uri, Err: err}
	}
	return Load(ctx, src)
}
