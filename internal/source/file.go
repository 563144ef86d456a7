package source

import (
	"context"
	"os"

	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// File reads a document from the local filesystem.
type File struct {
	Path string
}

// NewFile returns a file source.
func NewFile(path string) *File { return &File{Path: path} }

// Location implements Source.
func (f *File) Location() string { return f.Path }

// Fetch implements Source.
func (f *File) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &portfolio.LoadError{Location: f.Path, Err: err}
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, &portfolio.LoadError{Location: f.Path, Err: err}
	}
	return data, nil
}
