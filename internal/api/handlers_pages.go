package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vyuha/portfolioviz/internal/registry"
)

var pageFuncs = map[string]interface{}{
	"plural": func(n int, word string) string {
		if n == 1 {
			return "1 " + word
		}
		return strconv.Itoa(n) + " " + word + "s"
	},
}

// indexPage is the data behind index.html.tmpl.
type indexPage struct {
	Portfolios   []portfolioSummary
	MinBuildings int
}

// portfolioPage is the data behind portfolio.html.tmpl.
type portfolioPage struct {
	Slug   string
	Title  string
	Status string
	Loaded bool
	Code   string
}

// renderPage executes a template into a buffer first so a template error
// still produces a clean 500.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("page render failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// ---------------------------------------------------------------------------
// GET /
// ---------------------------------------------------------------------------

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	minBuildings := 0
	if v := r.URL.Query().Get("min_buildings"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			minBuildings = n
		}
	}

	var entries []*registry.Entry
	if minBuildings > 0 {
		entries = s.registry.Ranked(minBuildings)
	} else {
		entries = s.registry.List()
	}
	page := indexPage{MinBuildings: minBuildings, Portfolios: make([]portfolioSummary, 0, len(entries))}
	for _, e := range entries {
		page.Portfolios = append(page.Portfolios, summarize(e))
	}
	s.renderPage(w, http.StatusOK, "index.html.tmpl", page)
}

// ---------------------------------------------------------------------------
// GET /p/{slug}
// ---------------------------------------------------------------------------

func (s *Server) handlePortfolioPage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	e, err := s.registry.Get(slug)
	if err != nil {
		s.renderPage(w, http.StatusNotFound, "portfolio.html.tmpl", portfolioPage{
			Slug:   slug,
			Title:  "Portfolio not found",
			Status: "No portfolio is registered as " + strconv.Quote(slug) + ".",
			Code:   "PORTFOLIO_NOT_FOUND",
		})
		return
	}

	// A failed load shows its message and no graph.
	s.renderPage(w, http.StatusOK, "portfolio.html.tmpl", portfolioPage{
		Slug:   e.Slug,
		Title:  e.Title(),
		Status: e.Message(),
		Loaded: e.OK(),
		Code:   summarize(e).Code,
	})
}
