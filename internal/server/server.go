// Package server exposes the review workbench over HTTP for the browser form.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ksl-hpc/aimcr/internal/session"
)

// defaultOperationTimeout bounds the remote push inside save and submit
// requests. The store maps expiry onto a PushFailed error.
const defaultOperationTimeout = 30 * time.Second

// Config holds the server configuration.
type Config struct {
	Addr           string
	Session        *session.Session
	SubmissionsDir string
	// OperationTimeout overrides the save/submit push deadline. Zero means
	// the default.
	OperationTimeout time.Duration
}

// Server wraps the HTTP API over one review session.
type Server struct {
	addr           string
	session        *session.Session
	submissionsDir string
	opTimeout      time.Duration
}

// New creates a server from the config.
func New(cfg Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if cfg.SubmissionsDir == "" {
		return nil, fmt.Errorf("submissions directory is required")
	}
	timeout := cfg.OperationTimeout
	if timeout == 0 {
		timeout = defaultOperationTimeout
	}
	return &Server{
		addr:           cfg.Addr,
		session:        cfg.Session,
		submissionsDir: cfg.SubmissionsDir,
		opTimeout:      timeout,
	}, nil
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/draft", s.handleGetDraft)
		r.Put("/draft", s.handlePutDraft)
		r.Post("/draft/save", s.handleSave)
		r.Post("/draft/submit", s.handleSubmit)
		r.Post("/draft/new", s.handleNewDraft)

		r.Get("/submissions", s.handleListSubmissions)
		r.Get("/submissions/{id}", s.handleGetSubmission)
		r.Get("/submissions/{id}/pdf", s.handleRenderSubmission)
	})

	return r
}

// Start runs the HTTP server until it fails.
func (s *Server) Start() error {
	log.Printf("Review workbench listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.Router())
}

// jsonResponse writes a JSON response with the given status code.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// errorResponse writes a JSON error response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
