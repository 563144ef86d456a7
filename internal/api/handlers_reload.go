package api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Reload job tracking
// ---------------------------------------------------------------------------

// reloadJob is one background re-fetch of every configured portfolio.
type reloadJob struct {
	mu          sync.RWMutex
	JobID       string
	Status      string // "loading"|"completed"|"failed"
	Locations   int
	Failed      int
	Catalog     int
	DurationMs  int64
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// reloadSnapshot is a mutex-free copy of reloadJob for serialisation.
type reloadSnapshot struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	Locations   int       `json:"locations"`
	Failed      int       `json:"failed"`
	Catalog     int       `json:"catalog"`
	DurationMs  int64     `json:"duration_ms,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

func (j *reloadJob) snapshot() reloadSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return reloadSnapshot{
		JobID:       j.JobID,
		Status:      j.Status,
		Locations:   j.Locations,
		Failed:      j.Failed,
		Catalog:     j.Catalog,
		DurationMs:  j.DurationMs,
		Error:       j.Error,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

func (s *Server) getReloadJob(jobID string) (*reloadJob, bool) {
	v, ok := s.reloadJobs.Load(jobID)
	if !ok {
		return nil, false
	}
	return v.(*reloadJob), true
}

// ---------------------------------------------------------------------------
// POST /api/reload
// ---------------------------------------------------------------------------

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeError(w, http.StatusServiceUnavailable, "RELOAD_UNAVAILABLE",
			"server was started without a portfolio loader")
		return
	}

	job := &reloadJob{
		JobID:     uuid.New().String(),
		Status:    "loading",
		Locations: len(s.locations),
		StartedAt: time.Now().UTC(),
	}
	s.reloadJobs.Store(job.JobID, job)

	// The job outlives the request.
	go s.runReload(context.WithoutCancel(r.Context()), job)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"data": map[string]interface{}{
			"status": "loading",
			"job_id": job.JobID,
		},
	})
}

// runReload re-fetches the configured locations and the catalog. Entries are
// replaced in place; live sessions keep the model they were created with.
func (s *Server) runReload(ctx context.Context, job *reloadJob) {
	start := time.Now()
	slog.Info("reload started", "job_id", job.JobID, "locations", len(s.locations))

	failed := s.registry.LoadAll(ctx, s.loader, s.locations)
	catalog := 0
	var catalogErr error
	if s.store != nil {
		catalog, catalogErr = s.registry.LoadCatalog(ctx, s.loader, s.store)
	}

	job.mu.Lock()
	job.Failed = failed
	job.Catalog = catalog
	job.Status = "completed"
	if catalogErr != nil {
		job.Status = "failed"
		job.Error = catalogErr.Error()
	}
	job.DurationMs = time.Since(start).Milliseconds()
	job.CompletedAt = time.Now().UTC()
	job.mu.Unlock()

	slog.Info("reload finished",
		"job_id", job.JobID,
		"failed", failed,
		"catalog", catalog,
		"duration_ms", job.DurationMs,
	)
	s.pruneReloadJobs(10)
}

// pruneReloadJobs keeps only the keepLast most recent finished jobs.
func (s *Server) pruneReloadJobs(keepLast int) {
	var done []*reloadJob
	s.reloadJobs.Range(func(_, v any) bool {
		job := v.(*reloadJob)
		job.mu.RLock()
		finished := job.Status != "loading"
		job.mu.RUnlock()
		if finished {
			done = append(done, job)
		}
		return true
	})
	if len(done) <= keepLast {
		return
	}
	sort.Slice(done, func(i, j int) bool {
		return done[i].StartedAt.After(done[j].StartedAt)
	})
	for _, job := range done[keepLast:] {
		s.reloadJobs.Delete(job.JobID)
	}
}

// ---------------------------------------------------------------------------
// GET /api/reload/{job}
// ---------------------------------------------------------------------------

func (s *Server) handleReloadStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.getReloadJob(r.PathValue("job"))
	if !ok {
		writeError(w, http.StatusNotFound, "JOB_NOT_FOUND", "reload job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": job.snapshot(),
	})
}
