// Package api exposes the HTTP interface for the pipeline service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

// Runner triggers one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (video.RunSummary, error)
}

// Server wires HTTP handlers to the pipeline driver and the active
// sink's listing capability.
type Server struct {
	router chi.Router
	runner Runner
	lister video.Lister
	logger *zap.Logger
}

// NewServer constructs a Server. lister may be nil when the active
// sink cannot enumerate records.
func NewServer(runner Runner, lister video.Lister, logger *zap.Logger) *Server {
	s := &Server{
		runner: runner,
		lister: lister,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/videos", s.listVideos)
		r.Post("/sync", s.triggerSync)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	if s.lister == nil {
		writeError(w, http.StatusNotImplemented, "active sink cannot list records")
		return
	}
	records, err := s.lister.List(r.Context())
	if err != nil {
		s.logger.Error("list records failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list records failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": records})
}

func (s *Server) triggerSync(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.Run(r.Context())
	if err != nil {
		s.logger.Error("sync run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
