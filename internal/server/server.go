// Package server wires handlers, middleware and routes together and owns
// the HTTP listener lifecycle. It is the composition root: every
// dependency chain (DB → repositories → services → handlers) is assembled
// here and nowhere else.
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

	"github.com/shossain/streamtube/internal/auth"
	"github.com/shossain/streamtube/internal/config"
	"github.com/shossain/streamtube/internal/handler"
	"github.com/shossain/streamtube/internal/middleware"
	sqliteRepo "github.com/shossain/streamtube/internal/repository/sqlite"
	"github.com/shossain/streamtube/internal/service"
	"github.com/shossain/streamtube/internal/storage"
)

// Server owns the router, the database handle and the blob storage
// client. The database is closed during graceful shutdown; blob storage
// is stateless per call and needs no teardown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. Services receive repository
// interfaces, handlers receive services; nothing below the handler layer
// sees HTTP.
func New(cfg *config.Config, blobs storage.BlobStorage, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, blobs)
	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService, blobs storage.BlobStorage) {
	// Middleware order: request ID and real IP first so the logger can
	// use them, Recoverer last so a panicking handler still gets logged.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	passwords := auth.NewPasswordService()
	sessions := service.NewSessionService(s.db.Users(), tokens, passwords, s.logger)
	users := service.NewUserService(
		s.db.Users(),
		s.db.Videos(),
		s.db.Subscriptions(),
		s.db.History(),
		passwords,
		blobs,
		s.logger,
	)

	sessionHandler := handler.NewSessionHandler(sessions, s.logger)
	userHandler := handler.NewUserHandler(users, s.cfg.UploadDir, s.logger)
	videoHandler := handler.NewVideoHandler(users, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			// Public: no token needed.
			r.Post("/register", userHandler.HandleRegister)
			r.Post("/login", sessionHandler.HandleLogin)
			// Refresh authenticates with the refresh token itself, not
			// an access token, so it stays outside requireAuth.
			r.Post("/refresh-token", sessionHandler.HandleRefresh)

			// Protected: a valid access token is required.
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", sessionHandler.HandleLogout)
				r.Post("/change-password", userHandler.HandleChangePassword)
				r.Get("/current-user", userHandler.HandleCurrentUser)
				r.Patch("/update-account", userHandler.HandleUpdateAccount)
				r.Patch("/avatar", userHandler.HandleUpdateAvatar)
				r.Patch("/cover-image", userHandler.HandleUpdateCoverImage)
				r.Get("/c/{username}", userHandler.HandleChannel)
				r.Get("/history", userHandler.HandleWatchHistory)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/videos", videoHandler.HandlePublish)
			r.Get("/videos/{videoID}", videoHandler.HandleWatch)
			r.Post("/subscriptions/{channelID}", videoHandler.HandleToggleSubscription)
		})
	})
}

// Start runs the listener until SIGINT/SIGTERM, then drains in-flight
// requests and closes the database.
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
