package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vyuha/portfolioviz/internal/graph"
	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/registry"
	"github.com/vyuha/portfolioviz/internal/storage"
)

// portfolioSummary is one row of the catalog listing.
type portfolioSummary struct {
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	Loaded        bool   `json:"loaded"`
	Code          string `json:"code,omitempty"`
	NodeCount     int    `json:"node_count"`
	EdgeCount     int    `json:"edge_count"`
	BuildingCount int    `json:"building_count"`
}

func summarize(e *registry.Entry) portfolioSummary {
	ps := portfolioSummary{
		Slug:   e.Slug,
		Title:  e.Title(),
		Status: e.Message(),
		Loaded: e.OK(),
		Code:   portfolio.Code(e.Err),
	}
	if e.OK() {
		ps.NodeCount = e.Model.NodeCount()
		ps.EdgeCount = e.Model.EdgeCount()
		ps.BuildingCount = e.Info.BuildingCount
	}
	return ps
}

// failureStatus maps a portfolio failure to its HTTP status.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, portfolio.ErrLoadFailure):
		return http.StatusBadGateway
	case errors.Is(err, portfolio.ErrParseFailure), errors.Is(err, portfolio.ErrMalformedPortfolio):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// lookupEntry resolves {slug}. It writes the error response and returns nil
// when the slug is unknown or, if requireGraph, the portfolio failed to
// load.
func (s *Server) lookupEntry(w http.ResponseWriter, r *http.Request, requireGraph bool) *registry.Entry {
	e, err := s.registry.Get(r.PathValue("slug"))
	if err != nil {
		writeError(w, http.StatusNotFound, "PORTFOLIO_NOT_FOUND", "portfolio not found")
		return nil
	}
	if requireGraph && !e.OK() {
		writeError(w, failureStatus(e.Err), portfolio.Code(e.Err), e.Message())
		return nil
	}
	return e
}

// ---------------------------------------------------------------------------
// GET /api/portfolios?min_buildings=N
// ---------------------------------------------------------------------------

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	var entries []*registry.Entry
	if v := r.URL.Query().Get("min_buildings"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_MIN_BUILDINGS",
				"min_buildings must be a non-negative integer")
			return
		}
		entries = s.registry.Ranked(n)
	} else {
		entries = s.registry.List()
	}

	out := make([]portfolioSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarize(e))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"portfolios": out,
		},
	})
}

// ---------------------------------------------------------------------------
// GET /api/portfolios/{slug}/graph
// ---------------------------------------------------------------------------

// graphPayload is the render-engine payload plus page status.
type graphPayload struct {
	graph.RenderData
	Status string `json:"status"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	e := s.lookupEntry(w, r, true)
	if e == nil {
		return
	}

	etag := `"` + e.Checksum + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": graphPayload{
			RenderData: e.Model.RenderData(e.Layout.XY),
			Status:     e.Model.StatusLine(),
		},
	})
}

// ---------------------------------------------------------------------------
// GET /api/portfolios/{slug}/info
// ---------------------------------------------------------------------------

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	e := s.lookupEntry(w, r, true)
	if e == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": e.Info,
	})
}

// ---------------------------------------------------------------------------
// GET /api/portfolios/{slug}/searches?limit=N
// ---------------------------------------------------------------------------

func (s *Server) handleRecentSearches(w http.ResponseWriter, r *http.Request) {
	e := s.lookupEntry(w, r, false)
	if e == nil {
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			limit = n
		}
	}
	if limit > 200 {
		limit = 200
	}

	searches := make([]storage.SearchRecord, 0)
	if s.store != nil {
		var err error
		searches, err = s.store.RecentSearches(r.Context(), e.Slug, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "STORAGE_ERROR", err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"searches": searches,
		},
	})
}
