// Package api exposes the discovery engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/immoleads/contact-discovery/internal/cache"
	"github.com/immoleads/contact-discovery/internal/metrics"
	"github.com/immoleads/contact-discovery/internal/service/contacts"
)

// Server is the HTTP front of the engine.
type Server struct {
	handler http.Handler
	server  *http.Server
	log     *zap.Logger
}

// NewServer wires handlers into a router. validator and resultCache may be
// nil; the corresponding endpoints then answer 503.
func NewServer(eng Engine, svc *contacts.Service, validator Validator, resultCache cache.Cache, m *metrics.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handlers{
		engine:    eng,
		svc:       svc,
		validator: validator,
		cache:     resultCache,
		log:       log,
		startTime: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/discover", h.Discover)
		r.Get("/contacts", h.ListContacts)
		r.Get("/contacts/{id}", h.GetContact)
		r.Post("/contacts/{id}/validate", h.ValidateContact)
		r.Get("/stats", h.Stats)
		r.Post("/cleanup", h.Cleanup)
		r.Post("/cache/purge", h.PurgeCache)
	})

	return &Server{handler: r, log: log}
}

// ListenAndServe starts the HTTP server on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Discovery runs crawl third-party sites; write timeouts must cover
		// a full run, not a typical request.
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
