package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/star/orbitarc/internal/auth"
	"github.com/star/orbitarc/internal/health"
	"github.com/star/orbitarc/internal/metrics"
	"github.com/star/orbitarc/internal/pipeline"
	"github.com/star/orbitarc/internal/tle"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr           string
	Auth           auth.Config
	TrustProxy     bool  // honour X-Forwarded-For / X-Real-IP in request logs
	MaxUploadBytes int64 // POST /api/v1/scene body limit
	MaxSamples     int   // per-request sampling budget across all objects
}

// DefaultConfig returns the default HTTP configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		MaxUploadBytes: 1 << 20,
		MaxSamples:     200_000,
	}
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server over the loaded objects in
// store, rendering scenes through pipe.
func NewServer(cfg Config, logger *slog.Logger, store *tle.Store, pipe *pipeline.Pipeline, ready *health.Readiness) *Server {
	def := DefaultConfig()
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = def.MaxSamples
	}

	h := &handlers{
		logger:         logger,
		store:          store,
		pipe:           pipe,
		maxUploadBytes: cfg.MaxUploadBytes,
		maxSamples:     cfg.MaxSamples,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", ready.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/objects", h.listObjects)
	mux.HandleFunc("GET /api/v1/objects/{label}/elements", h.objectElements)
	mux.HandleFunc("GET /api/v1/scene", h.storedScene)
	mux.HandleFunc("POST /api/v1/scene", h.uploadScene)

	// Build middleware chain: metrics -> tracing -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = tracingMiddleware(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}
