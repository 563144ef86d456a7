package api

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"github.com/vyuha/portfolioviz/internal/metrics"
	"github.com/vyuha/portfolioviz/internal/registry"
	"github.com/vyuha/portfolioviz/internal/session"
	"github.com/vyuha/portfolioviz/internal/storage"
)

//go:embed web
var webFS embed.FS

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Options configures a Server. Store, Metrics and Loader may be nil;
// without a Loader POST /api/reload is unavailable.
type Options struct {
	Registry    *registry.Registry
	Store       *storage.Storage
	Sessions    *session.Manager
	Metrics     *metrics.Registry
	Loader      *registry.Loader
	Locations   []string
	SearchRate  float64
	SearchBurst int
}

// Server is the HTTP layer: portfolio pages, graph payloads, search
// sessions and their camera event streams.
type Server struct {
	registry      *registry.Registry
	store         *storage.Storage
	sessions      *session.Manager
	metrics       *metrics.Registry
	sse           *SSEBroadcaster
	mux           *http.ServeMux
	server        *http.Server
	pages         *template.Template
	searchLimiter *rate.Limiter
	searchBurst   int
	heartbeat     time.Duration

	loader     *registry.Loader
	locations  []string
	reloadJobs sync.Map // job id -> *reloadJob
}

// NewServer creates a new Server. Routes are registered by RegisterRoutes.
func NewServer(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = registry.New(opts.Metrics)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(0)
	}
	if opts.SearchRate <= 0 {
		opts.SearchRate = 5
	}
	if opts.SearchBurst <= 0 {
		opts.SearchBurst = 10
	}

	s := &Server{
		registry:    opts.Registry,
		store:       opts.Store,
		sessions:    opts.Sessions,
		metrics:     opts.Metrics,
		sse:         NewSSEBroadcaster(),
		mux:         http.NewServeMux(),
		pages:       template.Must(template.New("").Funcs(pageFuncs).ParseFS(webFS, "web/*.html.tmpl")),
		searchBurst: opts.SearchBurst,
		heartbeat:   30 * time.Second,
		loader:      opts.Loader,
		locations:   opts.Locations,
	}

	// Search submissions share one token bucket across all sessions.
	s.searchLimiter = rate.NewLimiter(rate.Limit(opts.SearchRate), opts.SearchBurst)

	// Ending a session (explicitly or by TTL) disconnects its streams.
	s.sessions.OnEvict = func(id string) {
		s.sse.CloseTopic(id)
		s.recordSessions()
	}
	if s.metrics != nil {
		s.sse.OnChange = s.metrics.SetSSEClients
	}
	return s
}

// RegisterRoutes wires up every endpoint.
func (s *Server) RegisterRoutes() {
	// -- Pages -------------------------------------------------------------
	s.mux.HandleFunc("GET /{$}", s.handleIndexPage)
	s.mux.HandleFunc("GET /p/{slug}", s.handlePortfolioPage)
	static, _ := fs.Sub(webFS, "web/static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// -- Portfolio endpoints ------------------------------------------------
	s.mux.HandleFunc("GET /api/portfolios", s.handleListPortfolios)
	s.mux.Handle("GET /api/portfolios/{slug}/graph", gzhttp.GzipHandler(http.HandlerFunc(s.handleGraph)))
	s.mux.HandleFunc("GET /api/portfolios/{slug}/info", s.handleInfo)
	s.mux.HandleFunc("GET /api/portfolios/{slug}/searches", s.handleRecentSearches)
	s.mux.HandleFunc("POST /api/reload", s.handleReload)
	s.mux.HandleFunc("GET /api/reload/{job}", s.handleReloadStatus)

	// -- Session endpoints --------------------------------------------------
	s.mux.HandleFunc("POST /api/portfolios/{slug}/sessions", s.handleCreateSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/search",
		s.withRateLimit(s.searchLimiter, s.handleSearch))
	s.mux.HandleFunc("GET /api/sessions/{id}/events", s.handleSessionEvents)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleEndSession)

	// -- Operations ---------------------------------------------------------
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the fully-wrapped http.Handler (middleware chain + mux).
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = recoveryMiddleware(h)
	h = s.metricsMiddleware(h)
	h = loggingMiddleware(h)
	h = corsMiddleware(h)
	return h
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: event streams stay open for the session lifetime.
		IdleTimeout: 60 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     "ok",
		"service":    "portfolioviz",
		"portfolios": len(s.registry.List()),
		"sessions":   s.sessions.Len(),
	})
}

func (s *Server) recordSessions() {
	if s.metrics != nil {
		s.metrics.SetSessions(s.sessions.Len())
	}
}

// ---------------------------------------------------------------------------
// JSON response helpers
// ---------------------------------------------------------------------------

// writeJSON writes an arbitrary value as JSON with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a standardised JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  code,
	})
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// corsMiddleware allows requests from any localhost origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://localhost:") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseRecorder captures the status code written by downstream handlers.
// It also implements http.Flusher so SSE streaming works through the
// logging middleware.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.statusCode = code
	rr.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher by delegating to the underlying writer.
func (rr *responseRecorder) Flush() {
	if f, ok := rr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rr *responseRecorder) Unwrap() http.ResponseWriter { return rr.ResponseWriter }

// loggingMiddleware logs method, path, duration and status code.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// metricsMiddleware records request counts and latency by route pattern.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		s.metrics.HTTPRequestsInFlight.Inc()
		defer s.metrics.HTTPRequestsInFlight.Dec()

		next.ServeHTTP(rec, r)

		// The mux fills in r.Pattern; unmatched requests share one label.
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(rec.statusCode), time.Since(start))
	})
}

// recoveryMiddleware catches panics and returns a 500 response.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()
				slog.Error("panic recovered",
					"error", err,
					"stack", string(stack),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, `{"error":"internal server error","code":"INTERNAL"}`)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withRateLimit wraps a handler with a token-bucket rate limiter.
// Returns 429 when the limiter is exhausted.
// NOTE: this is a per-server limiter (not per-IP).
func (s *Server) withRateLimit(limiter *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			if s.metrics != nil {
				s.metrics.RecordRateLimited()
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.searchBurst))
			w.Header().Set("X-RateLimit-Remaining",
				fmt.Sprintf("%d", int(limiter.Tokens())))
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":"rate limit exceeded","code":"RATE_LIMITED","retry_after_ms":1000}`)
			slog.Warn("rate limit exceeded",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			return
		}
		next(w, r)
	}
}
