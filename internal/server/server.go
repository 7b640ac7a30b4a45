// Package server provides the HTTP API for Specialist Aid.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/salulink/specialist-aid/internal/analysis"
	"github.com/salulink/specialist-aid/internal/config"
	"github.com/salulink/specialist-aid/internal/metrics"
	"github.com/salulink/specialist-aid/internal/notes"
	"github.com/salulink/specialist-aid/internal/storage"
)

// ServiceName is reported by GET /.
const ServiceName = "SaluLink Specialist Aid API"

// WatchService reports the corpus files being watched for changes.
type WatchService interface {
	Files() []string
}

// Server is the HTTP server for the Specialist Aid API.
type Server struct {
	engine  *analysis.Engine
	catalog storage.Catalog
	notes   *notes.Reader
	config  *config.Config
	metrics *metrics.Metrics
	watch   WatchService
	version string
	logger  *zap.Logger
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes m at GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithWatch reports watched corpus files in the status response. watch may be nil.
func WithWatch(w WatchService) Option {
	return func(s *Server) { s.watch = w }
}

// WithVersion sets the version reported by GET / and the status endpoint.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// NewServer creates a server with the given dependencies. catalog may be nil, in which
// case treatment baskets are unavailable.
func NewServer(engine *analysis.Engine, catalog storage.Catalog, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		engine:  engine,
		catalog: catalog,
		notes:   notes.NewReader(int64(cfg.Server.MaxNoteBytes)),
		config:  cfg,
		version: "dev",
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{analysisIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/upload", s.handleAnalyzeUpload)
		r.Get("/conditions", s.handleConditions)
		r.Get("/conditions/search", s.handleConditionSearch)
		r.Get("/treatment-baskets/{code}", s.handleTreatmentBaskets)
		r.Get("/status", s.handleStatus)
	})

	// Unversioned paths served by the first release of the API.
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/conditions", s.handleConditions)
	r.Get("/treatment-baskets/{code}", s.handleTreatmentBaskets)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
