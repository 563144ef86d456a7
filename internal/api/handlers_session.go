package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vyuha/portfolioviz/internal/portfolio"
	"github.com/vyuha/portfolioviz/internal/storage"
)

// maxSearchBody bounds POST /api/sessions/{id}/search bodies.
const maxSearchBody = 4 << 10

// ---------------------------------------------------------------------------
// POST /api/portfolios/{slug}/sessions
// ---------------------------------------------------------------------------

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	e := s.lookupEntry(w, r, false)
	if e == nil {
		return
	}
	// A portfolio that failed to load has no graph to search.
	if !e.OK() {
		writeError(w, http.StatusConflict, portfolio.Code(e.Err), e.Message())
		return
	}

	sess := s.sessions.Create(e.Slug, e.Model, e.Layout, s.newSessionCamera(e.Model.NodeIDs()))
	s.recordSessions()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id":     sess.ID,
			"slug":   sess.Slug,
			"state":  sess.State(),
			"status": e.Model.StatusLine(),
			"events": "/api/sessions/" + sess.ID + "/events",
			"search": "/api/sessions/" + sess.ID + "/search",
			"colors": sess.NodeColors(),
		},
	})
}

// ---------------------------------------------------------------------------
// POST /api/sessions/{id}/search
// ---------------------------------------------------------------------------

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSearchBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "body must be JSON {\"query\": string}")
		return
	}

	out := sess.Submit(req.Query)
	colors := sess.NodeColors()
	s.sse.Publish(sess.ID, SSEEvent{Event: EventColors, Data: colors})

	if s.metrics != nil {
		s.metrics.RecordSearch(string(out.Kind), len(out.Selected))
	}
	if s.store != nil {
		rec := &storage.SearchRecord{
			SessionID:  sess.ID,
			Slug:       sess.Slug,
			Query:      out.Query,
			MatchCount: len(out.Selected),
			Outcome:    string(out.Kind),
		}
		if err := s.store.LogSearch(r.Context(), rec); err != nil {
			slog.Warn("search log write failed", "session", sess.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"outcome": out,
			"colors":  colors,
		},
	})
}

// ---------------------------------------------------------------------------
// DELETE /api/sessions/{id}
// ---------------------------------------------------------------------------

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
