// Copyright (c) 2026 PetHaul. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, session layer
and upstream proxies into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/pethaul/internal/platform/config"
	"github.com/taibuivan/pethaul/internal/platform/constants"
	"github.com/taibuivan/pethaul/internal/platform/middleware"
	"github.com/taibuivan/pethaul/internal/session"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups everything the router dispatches to.
type Handlers struct {
	// Liveness is the /health handler; always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Sessions resolves the browser session of every request.
	Sessions *session.Registry

	// SessionService runs the unified check on arrival.
	SessionService *session.Service

	// Auth serves the gateway's own login/logout/session endpoints.
	Auth *session.Handler

	// BackendAPI relays /api/* to the REST backend.
	BackendAPI http.Handler

	// Storefront relays pages and assets to the storefront server.
	Storefront http.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()
	limiter := middleware.NewRateLimiter(context, cfg.RateLimitRPS, cfg.RateLimitBurst)

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(limiter.Middleware)
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Session-less health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Session-Aware Routes
	r.Group(func(web chi.Router) {
		web.Use(h.Sessions.Attach(cfg.SessionCookieSecure))
		web.Use(session.CheckOnArrival(h.SessionService, cfg.SessionRecheckInterval))

		// Gateway auth endpoints
		web.Mount("/api/v1/auth", h.Auth.Routes())

		// Backend passthrough
		web.Handle(BackendAPIPrefix+"/*", h.BackendAPI)

		// Protected pages
		web.With(session.Guard(session.RequireAuth)).Handle("/mypage", h.Storefront)
		web.With(session.Guard(session.RequireAuth)).Handle("/mypage/*", h.Storefront)
		web.With(session.Guard(session.RequireAdmin)).Handle("/admin", h.Storefront)
		web.With(session.Guard(session.RequireAdmin)).Handle("/admin/*", h.Storefront)

		// Everything else, including /login and /join, is public
		web.Handle("/*", h.Storefront)
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
