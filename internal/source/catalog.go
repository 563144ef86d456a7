package source

import (
	"context"

	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// Catalog looks up stored documents by slug.
type Catalog interface {
	Document(ctx context.Context, slug string) ([]byte, error)
}

// CatalogSource reads a document previously imported into the catalog.
type CatalogSource struct {
	Slug    string
	catalog Catalog
}

// NewCatalog returns a catalog source.
func NewCatalog(slug string, c Catalog) *CatalogSource {
	return &CatalogSource{Slug: slug, catalog: c}
}

// Location implements Source.
func (c *CatalogSource) Location() string { return "catalog:" + c.Slug }

// Fetch implements Source.
func (c *CatalogSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := c.catalog.Document(ctx, c.Slug)
	if err != nil {
		return nil, &portfolio.LoadError{Location: c.Location(), Err: err}
	}
	return data, nil
}
