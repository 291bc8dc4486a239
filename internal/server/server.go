// Package server wires the application together: database, services,
// handlers, middleware, and routes, plus the HTTP lifecycle with graceful
// shutdown. It is the composition root; nothing below this layer knows how
// its collaborators are constructed.
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

	"github.com/openrundb/leaderboard-api/internal/auth"
	"github.com/openrundb/leaderboard-api/internal/config"
	"github.com/openrundb/leaderboard-api/internal/handler"
	"github.com/openrundb/leaderboard-api/internal/mail"
	"github.com/openrundb/leaderboard-api/internal/middleware"
	sqliteRepo "github.com/openrundb/leaderboard-api/internal/repository/sqlite"
	"github.com/openrundb/leaderboard-api/internal/service"
)

// Server owns the router and the database handle. The handle is closed
// during shutdown, after in-flight requests have drained.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. The mailer is injected by main so
// the SMTP/log choice stays out of the wiring.
func New(cfg *config.Config, mailer mail.Mailer, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(mailer); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes(mailer mail.Mailer) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	var github *auth.GitHubProvider
	if s.config.GitHubConfigured() {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured, sign-in routes return 404")
	}

	runService := service.NewRunService(s.db, s.db, s.db, s.logger)
	catalogService := service.NewCatalogService(s.db, s.db, s.db, s.logger)
	accountService := service.NewAccountService(
		s.db, s.db, tokens,
		auth.NewPasswordService(),
		mailer,
		s.config.BaseURL,
		s.logger,
	)

	runs := handler.NewRunHandler(runService, s.logger)
	catalog := handler.NewCatalogHandler(catalogService, s.logger)
	accounts := handler.NewAccountHandler(accountService, github, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.With(optionalAuth).Get("/runs/{id}", runs.HandleGet)
		r.With(optionalAuth).Get("/runs/{id}/category", runs.HandleGetCategory)
		r.With(optionalAuth).Get("/categories/{id}/runs", runs.HandleList)
		r.With(requireAuth).Post("/categories/{id}/runs", runs.HandleCreate)

		r.With(optionalAuth).Get("/leaderboards", catalog.HandleListLeaderboards)
		r.With(optionalAuth).Get("/leaderboards/{id}", catalog.HandleGetLeaderboard)
		r.With(requireAuth).Post("/leaderboards", catalog.HandleCreateLeaderboard)
		r.With(requireAuth).Post("/leaderboards/{id}/categories", catalog.HandleCreateCategory)
		r.With(optionalAuth).Get("/categories/{id}", catalog.HandleGetCategory)
		r.With(requireAuth).Delete("/categories/{id}", catalog.HandleDeleteCategory)

		r.Post("/users/register", accounts.HandleRegister)
		r.Post("/users/login", accounts.HandleLogin)
		r.Post("/users/logout", accounts.HandleLogout)
		r.With(requireAuth).Get("/users/me", accounts.HandleMe)
		r.Post("/account/confirm/{token}", accounts.HandleConfirm)
		r.Post("/account/recover", accounts.HandleRequestRecovery)
		r.Post("/account/recover/{token}", accounts.HandleResetPassword)
	})

	s.router.Get("/auth/github/login", accounts.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", accounts.HandleGitHubCallback)

	return nil
}

// Router exposes the assembled handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight requests
// and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
