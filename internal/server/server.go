// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search engine over a small JSON API. Each
// browser gets a session through a cookie; the session carries the active
// keyword, the per-source cursors, and the prefetch cache.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/book-metasearch/internal/search"
	"github.com/pdiddy/book-metasearch/internal/session"
	"github.com/pdiddy/book-metasearch/pkg/types"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "book_metasearch_session"

const (
	defaultSessionTTL = 30 * time.Minute
	sweepInterval     = time.Minute
	shutdownTimeout   = 5 * time.Second
)

// Server wires the engine, the session store and the middleware chain.
type Server struct {
	Engine   *search.Engine
	Sessions *session.Store
	Logger   *slog.Logger

	cfg      types.ServerConfig
	limiter  *rateLimiter
	validate *validator.Validate
}

// New returns a server for engine. Sessions use the engine's paging
// settings.
func New(engine *search.Engine, cfg types.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	sc := engine.Config.WithDefaults()
	return &Server{
		Engine:   engine,
		Sessions: session.NewStore(cfg.SessionTTL, sc.PageSize, sc.BlockPages),
		Logger:   logger,
		cfg:      cfg,
		limiter:  newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.TrustProxy),
		validate: newValidator(engine.Sources()),
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/page", s.handlePage)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("DELETE /api/session", s.handleEndSession)
	mux.HandleFunc("GET /api/quota", s.handleQuota)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	h = s.limiter.middleware(h)
	h = recovery(s.Logger, h)
	h = accessLog(s.Logger, h)
	h = requestID(h)
	return h
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	bg, stop := context.WithCancel(ctx)
	defer stop()
	go s.Sessions.Run(bg, sweepInterval)
	go s.limiter.run(bg, sweepInterval)

	serverErr := make(chan error, 1)
	go func() {
		s.Logger.Info("book metasearch listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.Logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.Logger.Info("server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
