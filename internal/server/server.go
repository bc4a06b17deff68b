package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/internal/metrics"
	"github.com/me/mediafront/internal/store"
	"github.com/me/mediafront/internal/ui"
)

// CleanupInterval is how often expired browser sessions are purged.
const CleanupInterval = 10 * time.Minute

// Server is the mediafront HTTP server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	ui        *ui.UI
	uiOpts    []ui.Option
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithUIOptions passes options through to the UI handler.
func WithUIOptions(opts ...ui.Option) Option {
	return func(s *Server) {
		s.uiOpts = append(s.uiOpts, opts...)
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, st store.Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ui = ui.New(st, cfg, logger, s.uiOpts...)

	s.routes()
	return s
}

// StartSessionCleanup purges expired sessions in a background goroutine
// until ctx is done.
func (s *Server) StartSessionCleanup(ctx context.Context) {
	go s.ui.Sessions().RunCleanup(ctx, CleanupInterval)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(metrics.InstrumentHandler)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/api", s.handleDiscovery)

	if s.config.StaticDir != "" {
		r.Handle("/static/*", ui.StaticHandler(s.config.StaticDir))
	}

	// Everything below runs with a browser session.
	r.Group(func(r chi.Router) {
		r.Use(s.ui.SessionMiddleware)
		s.ui.RegisterRoutes(r)
		r.Get("/api/session/whoami", s.handleSessionWhoAmI)
	})

	r.NotFound(s.ui.HandleNotFound)
}
