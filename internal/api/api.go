// Package api serves the catalog, progress, and achievement engines over
// HTTP and streams per-learner status over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/pai-finlit/internal/achievement"
	"github.com/p-n-ai/pai-finlit/internal/catalog"
	"github.com/p-n-ai/pai-finlit/internal/platform/metrics"
	"github.com/p-n-ai/pai-finlit/internal/progress"
)

const readyTimeout = 3 * time.Second

// Catalog is the content surface the API needs. *catalog.Loader satisfies it.
type Catalog interface {
	progress.ModuleSource
	DiscoverModules(ctx context.Context) []catalog.ModuleMetadata
	Lesson(ctx context.Context, moduleID, lessonID string) (catalog.Lesson, bool)
	Quiz(ctx context.Context, moduleID string) (catalog.Quiz, bool)
	PrefetchModule(ctx context.Context, moduleID string) ([]catalog.Lesson, *catalog.Quiz, bool)
	ClearCache(ctx context.Context)
}

// Check reports whether a dependency is ready to serve.
type Check func(ctx context.Context) error

// Server holds the HTTP handlers.
type Server struct {
	catalog Catalog
	service *progress.Service
	checks  map[string]Check
}

// Option configures a Server.
type Option func(*Server)

// WithReadinessCheck adds a dependency check to /readyz.
func WithReadinessCheck(name string, check Check) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// New creates the API server.
func New(c Catalog, svc *progress.Service, opts ...Option) *Server {
	s := &Server{
		catalog: c,
		service: svc,
		checks:  make(map[string]Check),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with every endpoint registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, metrics.Middleware(pattern, h))
	}

	handle("GET /healthz", s.handleHealthz)
	handle("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", metrics.Handler())

	handle("GET /api/modules", s.handleListModules)
	handle("GET /api/modules/{id}", s.handleGetModule)
	handle("GET /api/modules/{id}/validation", s.handleValidateModule)
	handle("GET /api/modules/{id}/lessons/{lessonID}", s.handleGetLesson)
	handle("GET /api/modules/{id}/quiz", s.handleGetQuiz)
	handle("GET /api/modules/{id}/content", s.handleModuleContent)
	handle("POST /api/catalog/refresh", s.handleRefreshCatalog)

	handle("GET /api/users/{userID}/modules", s.handleDashboard)
	handle("GET /api/users/{userID}/modules/{id}/status", s.handleModuleStatus)
	handle("POST /api/users/{userID}/modules/{id}/unlock", s.handleUnlock)
	handle("PUT /api/users/{userID}/progress", s.handleSaveProgress)
	handle("GET /api/users/{userID}/achievements", s.handleAchievements)

	mux.HandleFunc("GET /ws/progress", s.handleProgressStream)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.DiscoverModules(r.Context()))
}

func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.catalog.Module(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleValidateModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.catalog.Module(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}
	writeJSON(w, http.StatusOK, catalog.ValidateModuleStructure(m))
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	l, ok := s.catalog.Lesson(r.Context(), r.PathValue("id"), r.PathValue("lessonID"))
	if !ok {
		writeError(w, http.StatusNotFound, "lesson not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	q, ok := s.catalog.Quiz(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "quiz not found")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// moduleContent is a module with every lesson and its quiz resolved, for
// clients that download a module for offline use.
type moduleContent struct {
	Module  catalog.Module   `json:"module"`
	Lessons []catalog.Lesson `json:"lessons"`
	Quiz    *catalog.Quiz    `json:"quiz,omitempty"`
}

func (s *Server) handleModuleContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, ok := s.catalog.Module(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}
	lessons, quiz, ok := s.catalog.PrefetchModule(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}
	writeJSON(w, http.StatusOK, moduleContent{Module: m, Lessons: lessons, Quiz: quiz})
}

func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	s.catalog.ClearCache(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.Dashboard(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleModuleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.ModuleStatus(r.Context(), r.PathValue("userID"), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type unlockResponse struct {
	Error  string                `json:"error,omitempty"`
	Status progress.ModuleStatus `json:"status"`
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.UnlockModule(r.Context(), r.PathValue("userID"), r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, unlockResponse{Status: st})
	case errors.Is(err, progress.ErrNotUnlockable), errors.Is(err, progress.ErrAlreadyUnlocked):
		writeJSON(w, http.StatusConflict, unlockResponse{Error: err.Error(), Status: st})
	default:
		writeServiceError(w, err)
	}
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request) {
	var p progress.UserProgress
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid progress body")
		return
	}
	p.UserID = r.PathValue("userID")

	if err := s.service.SaveProgress(r.Context(), p); err != nil {
		if errors.Is(err, progress.ErrInvalidProgress) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	sum, err := s.achievements(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) achievements(ctx context.Context, userID string) (achievement.Summary, error) {
	p, err := s.service.Progress(ctx, userID)
	if err != nil {
		return achievement.Summary{}, err
	}
	pct := progress.OverallProgress(s.catalog.Modules(ctx), p)
	return achievement.Evaluate(p, len(p.CompletedLessons), pct), nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, progress.ErrModuleNotFound) {
		writeError(w, http.StatusNotFound, "module not found")
		return
	}
	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
