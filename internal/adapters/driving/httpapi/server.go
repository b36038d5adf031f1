// Package httpapi exposes ingestion, requirement selection and test-case
// generation over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
	"github.com/custodia-labs/apiforge/internal/logger"
)

// ErrMissingService is returned when a required service is not provided.
var ErrMissingService = errors.New("httpapi: ingest, requirement and generation services are required")

// DefaultMaxUploadSize bounds multipart document uploads.
const DefaultMaxUploadSize int64 = 32 << 20

const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to the core services.
type Server struct {
	router       *mux.Router
	ingest       driving.IngestService
	requirements driving.RequirementService
	generation   driving.GenerationService

	maxUpload int64
	origins   []string
}

// Option configures the Server.
type Option func(*Server)

// WithMaxUploadSize overrides the upload limit in bytes.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithAllowedOrigins restricts CORS to the given origins. All origins are
// allowed by default.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// New creates a server over the given services.
func New(
	ingest driving.IngestService,
	requirements driving.RequirementService,
	generation driving.GenerationService,
	opts ...Option,
) (*Server, error) {
	if ingest == nil || requirements == nil || generation == nil {
		return nil, ErrMissingService
	}

	s := &Server{
		router:       mux.NewRouter(),
		ingest:       ingest,
		requirements: requirements,
		generation:   generation,
		maxUpload:    DefaultMaxUploadSize,
		origins:      []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc("/test-entities/generate", s.handleGenerate).Methods(http.MethodPost)
	s.router.HandleFunc("/test-entities/runs/{run_id}", s.handleRunStatus).Methods(http.MethodGet)

	s.router.HandleFunc("/projects/{project_id}/documents", s.handleUpload).Methods(http.MethodPost)
	s.router.HandleFunc("/projects/{project_id}/documents", s.handleListDocuments).Methods(http.MethodGet)
	s.router.HandleFunc("/projects/{project_id}/requirements", s.handleListRequirements).Methods(http.MethodGet)
	s.router.HandleFunc("/projects/{project_id}/requirements/selection", s.handleSelectRequirements).
		Methods(http.MethodPut)
	s.router.HandleFunc("/projects/{project_id}/test-suites", s.handleTestSuites).Methods(http.MethodGet)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("http: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
