// Package server implements the AgentLens HTTP API.
//
// The API stores uploaded execution graphs and renders call-graph views on
// demand. Rendering goes through the shared pipeline runner, so results are
// cached across requests.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agentlens/agentlens/pkg/cache"
	"github.com/agentlens/agentlens/pkg/errors"
	"github.com/agentlens/agentlens/pkg/observability"
	"github.com/agentlens/agentlens/pkg/pipeline"
	"github.com/agentlens/agentlens/pkg/store"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	store  store.GraphStore
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a server backed by the given store and pipeline runner.
func New(s store.GraphStore, r *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: s, runner: r, logger: logger}
}

// Router returns the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/graphs", func(r chi.Router) {
		r.Post("/", s.handleUploadGraph)
		r.Get("/", s.handleListGraphs)
		r.Get("/{id}", s.handleGetGraph)
		r.Delete("/{id}", s.handleDeleteGraph)
		r.Get("/{id}/topology", s.handleTopology)
		r.Get("/{id}/layout", s.handleLayout)
		r.Get("/{id}/render", s.handleRender)
	})

	return r
}

// graphRunner returns a runner whose cache keys are namespaced to one
// stored graph, so entries of different graphs never collide on a shared
// backend even when their content hashes match.
func (s *Server) graphRunner(id string) *pipeline.Runner {
	return &pipeline.Runner{
		Cache:  s.runner.Cache,
		Keyer:  cache.NewScopedKeyer(s.runner.Keyer, "graph:"+id+":"),
		Logger: s.runner.Logger,
	}
}

// observe logs each request and feeds the server observability hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		observability.Server().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", elapsed.Round(time.Millisecond))
	})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response, mapping error codes to HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeGraphNotFound, errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGraph, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidNodeID, errors.ErrCodeInvalidConfig:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
