package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/meteor-ke-sweep/internal/artifact"
	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// Server exposes health, readiness, metrics and artifact progress endpoints.
type Server struct {
	httpServer *http.Server
	outputDir  string
	logger     *slog.Logger
}

// WorkerProgress summarizes one worker artifact of a namespace.
type WorkerProgress struct {
	Worker   int            `json:"worker"`
	Workers  int            `json:"workers"`
	Jobs     int            `json:"jobs"`
	Statuses map[string]int `json:"statuses"`
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /artifacts/{namespace} routes. outputDir is the root of the namespaces.
func NewServer(addr string, ready sharedobs.ReadinessChecker, outputDir string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		outputDir: outputDir,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /artifacts/{namespace}", s.handleArtifacts)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleArtifacts reports the job statuses recorded in every worker
// checkpoint of a namespace. Checkpoints are replaced atomically, so a read
// never sees a partial file.
func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	paths, err := artifact.Discover(s.outputDir, namespace)
	switch {
	case errors.Is(err, domain.ErrInvalidNamespace):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, fs.ErrNotExist):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "namespace not found"})
		return
	case err != nil:
		s.logger.Error("discover artifacts", "namespace", namespace, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "discover failed"})
		return
	}

	progress := make([]WorkerProgress, 0, len(paths))
	for _, p := range paths {
		a, err := artifact.ReadFile(p)
		if err != nil {
			s.logger.Warn("read artifact", "path", p, "error", err)
			continue
		}
		wp := WorkerProgress{
			Worker:   a.Worker.Index,
			Workers:  a.Worker.Count,
			Jobs:     len(a.Jobs),
			Statuses: make(map[string]int),
		}
		for status, n := range a.Counts() {
			wp.Statuses[status.String()] = n
		}
		progress = append(progress, wp)
	}
	writeJSON(w, http.StatusOK, progress)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
