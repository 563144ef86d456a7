package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// maxDocumentBytes bounds the size of a fetched document.
var maxDocumentBytes int64 = 64 << 20

// readDocument reads a whole document body. A body longer than
// maxDocumentBytes is a load failure rather than a truncated document.
func readDocument(location string, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, &portfolio.LoadError{Location: location, Err: err}
	}
	if int64(len(data)) > maxDocumentBytes {
		return nil, &portfolio.LoadError{
			Location: location,
			Err:      fmt.Errorf("document exceeds %d bytes", maxDocumentBytes),
		}
	}
	return data, nil
}

// HTTP fetches a document with a GET request. Any status outside 2xx is a
// load failure carrying the status code.
type HTTP struct {
	URL    string
	client *http.Client
}

// NewHTTP returns an HTTP source. A nil client gets a 30s timeout client.
func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTP{URL: url, client: client}
}

// Location implements Source.
func (h *HTTP) Location() string { return h.URL }

// Fetch implements Source.
func (h *HTTP) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, &portfolio.LoadError{Location: h.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &portfolio.LoadError{Location: h.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &portfolio.LoadError{Location: h.URL, StatusCode: resp.StatusCode}
	}

	return readDocument(h.URL, resp.Body)
}
