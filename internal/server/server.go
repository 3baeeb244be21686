// Package server wires the HTTP server: router, middleware, routes, and
// the dependency chain from database to handlers.
//
// This is the composition root — every dependency is assembled here, in
// one place, instead of scattered across the codebase. main.go stays
// minimal: load config, create the logger and session mirror, hand them
// over.
//
// DEPENDENCY FLOW:
//
//	sqlite.DB → stores → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services. No handler touches SQL; no service
// touches HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dhkim/snipstash/internal/auth"
	"github.com/dhkim/snipstash/internal/config"
	"github.com/dhkim/snipstash/internal/handler"
	"github.com/dhkim/snipstash/internal/middleware"
	sqliteRepo "github.com/dhkim/snipstash/internal/repository/sqlite"
	"github.com/dhkim/snipstash/internal/service"
	"github.com/dhkim/snipstash/internal/session"
)

// Server owns the router, the database connection, and the wired
// services. The database is closed during graceful shutdown in Start.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	authSvc *service.AuthService
}

// New assembles the full dependency chain from the config. The session
// mirror is created by the caller so it can be started (and observed)
// independently of the HTTP lifecycle.
func New(cfg *config.Config, mirror *session.Mirror, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.BcryptCost)

	// GitHub login is optional: without credentials the provider is nil
	// and the /auth/github routes are simply not registered.
	var github *auth.GitHubProvider
	if cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	authSvc := service.NewAuthService(db.Users(), tokens, passwords, mirror, logger)
	snippetSvc := service.NewSnippetService(db.Snippets(), db.Tags(), cfg.TagScope, logger)
	tagSvc := service.NewTagService(db.Tags(), cfg.TagScope, logger)

	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		logger:  logger,
		db:      db,
		authSvc: authSvc,
	}

	s.setupRoutes(tokens, github, authSvc, snippetSvc, tagSvc, mirror)
	return s, nil
}

// AuthService exposes the wired auth service so main can drive the
// session mirror's initial lookup through it.
func (s *Server) AuthService() *service.AuthService {
	return s.authSvc
}

// setupRoutes configures middleware and all route handlers.
//
// Middleware order matters — it executes in the order added:
// RequestID assigns a trace ID, RealIP unwraps proxy headers, the slog
// logger times the request, Recoverer turns panics into 500s.
func (s *Server) setupRoutes(
	tokens *auth.TokenService,
	github *auth.GitHubProvider,
	authSvc *service.AuthService,
	snippetSvc *service.SnippetService,
	tagSvc *service.TagService,
	mirror *session.Mirror,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokenTTL := time.Duration(s.cfg.TokenTTLMinutes) * time.Minute
	authHandler := handler.NewAuthHandler(authSvc, mirror, github, tokenTTL, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetSvc, s.logger)
	tagHandler := handler.NewTagHandler(tagSvc, snippetSvc, s.logger)
	exportHandler := handler.NewExportHandler(snippetSvc, authSvc, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Public: account creation and login. The session snapshot is
		// reachable anonymously too, but only reports a principal when the
		// request carries a valid token of its own.
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.With(auth.OptionalAuth(tokens)).Get("/session", authHandler.HandleSession)

		// Everything below requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Post("/auth/refresh", authHandler.HandleRefresh)
			r.Get("/me", authHandler.HandleMe)

			r.Get("/snippets", snippetHandler.HandleList)
			r.Get("/snippets/stats", snippetHandler.HandleStats)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Delete("/snippets", snippetHandler.HandleDeleteAll)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Patch("/snippets/{id}/favorite", snippetHandler.HandleToggleFavorite)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)

			r.Get("/tags", tagHandler.HandleList)
			r.Get("/tags/{id}/snippets", tagHandler.HandleSnippetsByTag)
			r.Put("/tags/{id}", tagHandler.HandleRename)
			r.Delete("/tags/{id}", tagHandler.HandleDelete)

			r.Get("/export", exportHandler.HandleExport)
		})
	})

	// Browser-facing OAuth redirects live outside /api.
	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, wait up to 30s for in-flight
// requests, close the database (flushing the WAL and releasing the file
// lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
			slog.Bool("github_login", s.cfg.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
