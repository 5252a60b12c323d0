// Package server wires the HTTP server: database, services, handlers,
// middleware, and routes.
//
// This is the composition root. main.go loads config and a logger and
// hands them to New; everything else is assembled here:
//
//	sqlite.DB ─┬─► ApplicationService ─► ApplicationHandler
//	           └─► AuthService ────────► AuthHandler
//
// Each layer only receives what it needs. Services get repository
// interfaces, handlers get services, and nothing below the handler knows
// about HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/jobtrack/internal/auth"
	"github.com/sakif/jobtrack/internal/config"
	"github.com/sakif/jobtrack/internal/handler"
	"github.com/sakif/jobtrack/internal/middleware"
	sqliteRepo "github.com/sakif/jobtrack/internal/repository/sqlite"
	"github.com/sakif/jobtrack/internal/service"
)

// purgeInterval is how often expired revoked-token rows are deleted.
const purgeInterval = time.Hour

// Server owns the router and the database connection. The connection is
// closed when Start returns, or by Close when Start is never called.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	auth   *service.AuthService
}

// New opens the database, runs migrations, and builds the router.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := newWithDB(cfg, logger, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newWithDB(cfg config.Config, logger *slog.Logger, db *sqliteRepo.DB) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		auth:   service.NewAuthService(db.Users(), db, tokens, auth.NewPasswordService(), logger),
	}
	s.setupRoutes(tokens)
	return s, nil
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET    /healthz
//	POST   /api/auth/register | /login | /token/refresh | /logout
//	GET    /api/auth/me                          (auth)
//	GET    /api/applications?search&status&sort&dir (auth)
//	POST   /api/applications                     (auth)
//	GET    /api/applications/board               (auth)
//	GET    /api/applications/{id}                (auth)
//	PATCH  /api/applications/{id}                (auth)
//	PUT    /api/applications/{id}/status         (auth)
//	DELETE /api/applications/{id}                (auth)
//	GET    /api/analytics                        (auth)
//	GET    /auth/github/login | /callback        (only when configured)
//
// Middleware runs in the order added: RequestID must precede Logger so the
// log line carries the ID, and CORS must precede routing so preflight
// requests are answered before chi returns 405 for OPTIONS.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.CORSOrigin))

	s.router.Get("/healthz", s.handleHealth)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Info("GitHub sign-in disabled: GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set")
	}

	requireAuth := auth.RequireAuth(tokens)
	authHandler := handler.NewAuthHandler(s.auth, github, !s.config.IsLocal(), s.logger)
	appHandler := handler.NewApplicationHandler(service.NewApplicationService(s.db, s.logger), s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes(requireAuth))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Mount("/applications", appHandler.Routes())
			r.Get("/analytics", appHandler.HandleAnalytics)
		})
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}
}

// Handler returns the fully wired router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// handleHealth answers 200 when the database is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}` + "\n"))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// purgeRevoked deletes expired revoked-token rows until ctx is cancelled.
func (s *Server) purgeRevoked(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.auth.PurgeRevoked(ctx)
			if err != nil {
				s.logger.Warn("purging revoked tokens failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.logger.Debug("purged revoked tokens", slog.Int64("count", n))
			}
		}
	}
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to 30s for in-flight requests
//  3. close the database
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go s.purgeRevoked(bgCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.AppEnv),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
