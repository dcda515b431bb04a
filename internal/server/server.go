// Package server is the admin console backend: it holds one API session per browser and exposes
// the admin API through JSON endpoints and CSV downloads.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/diego00711/inksa-admin-sub000/internal/client"
	"github.com/diego00711/inksa-admin-sub000/internal/config"
	"github.com/diego00711/inksa-admin-sub000/internal/logger"
	"github.com/diego00711/inksa-admin-sub000/internal/middleware"
	"github.com/diego00711/inksa-admin-sub000/internal/session"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jub0bs/cors"
)

const (
	// maxRequestBytes caps console request bodies (login forms)
	maxRequestBytes = 64 * 1024

	handlerTimeout = 60 * time.Second

	sweepInterval = 10 * time.Minute
)

type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	resolver *client.Resolver
	sessions *sessionRegistry
	cors     *cors.Middleware
}

// NewServer creates the console server. Every browser session gets its own API client;
// the endpoint resolver is shared so that discovered prefixes are reused across sessions.
func NewServer(cfg *config.Config, log *slog.Logger) (*Server, error) {
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   log,
		resolver: client.NewResolver(),
	}

	opts := client.OptionsFromConfig(cfg, log)
	s.sessions = newSessionRegistry(func(store *session.Store) *client.Client {
		return client.NewClient(opts, store, s.resolver)
	}, log)

	if len(cfg.AllowedOrigins) > 0 {
		mw, err := middleware.NewCORS(cfg.AllowedOrigins)
		if err != nil {
			return nil, err
		}
		s.cors = mw
	}

	s.setupMiddleware()
	s.registerRoutes()
	return s, nil
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(handlerTimeout))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RequestSizeLimit(maxRequestBytes))
	if s.cors != nil {
		s.router.Use(middleware.CORS(s.cors))
	}
}

func (s *Server) registerRoutes() {
	s.router.Get("/health/live", s.handleLiveness)

	s.router.Post("/login", s.handleLogin)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Post("/logout", s.handleLogout)

		r.Get("/api/me", s.handleMe)
		r.Get("/api/dashboard", s.handleDashboard)
		r.Get("/api/finance/overview", s.handleFinanceOverview)
		r.Get("/api/resources/{resource}", s.handleListResource)

		r.Get("/export/{resource}", s.handleExport)
	})
}

// Start serves the console until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go s.sessions.runSweeper(sweepCtx, sweepInterval)

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("console server listening",
			slog.String("address", addr),
			slog.String("api_base_url", s.config.APIBaseURL),
			slog.Bool("demo_mode", s.config.DemoMode),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down console server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server forced to shutdown", slog.String("error", err.Error()))
			return err
		}
	}

	return nil
}
