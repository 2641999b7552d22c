// Package server wires handlers, middleware, and routes, and owns the HTTP
// server lifecycle. It is the composition root: every dependency in the
// chain (DB → repositories → services → handlers) is assembled here, and
// main.go stays minimal.
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

	"github.com/ecomove/ecomove/internal/auth"
	"github.com/ecomove/ecomove/internal/handler"
	"github.com/ecomove/ecomove/internal/middleware"
	sqliterepo "github.com/ecomove/ecomove/internal/repository/sqlite"
	"github.com/ecomove/ecomove/internal/scoring"
	"github.com/ecomove/ecomove/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliterepo.DB
}

// New creates the Server and assembles the full dependency chain.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliterepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// ROUTES:
//
//	POST  /api/auth/register             create account + token
//	POST  /api/auth/login                verify credentials + token
//	GET   /api/ranking                   leaderboard (public)
//	GET   /api/stats                     global totals (public)
//	GET   /api/rewards                   active in-stock catalog (public)
//	GET   /api/users/{id}                public profile        (public)
//	POST  /api/trips                     log a trip            (auth)
//	GET   /api/trips                     recent trips          (auth)
//	GET   /api/trips/stats               per-mode aggregation  (auth)
//	GET   /api/challenges                challenges + progress (auth)
//	GET   /api/rewards/affordable        affordable catalog    (auth)
//	POST  /api/rewards/{id}/redeem       redeem                (auth)
//	GET   /api/redemptions               redemption history    (auth)
//	PATCH /api/redemptions/{id}/status   operator transition   (auth)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// Dependency chain: the sqlite DB implements the repository
	// interfaces; services get the repos plus the Atomic runner; handlers
	// get only services.
	repos := s.db.Repos()
	calculator := scoring.NewCalculator(scoring.DefaultFactors())

	authService := service.NewAuthService(repos, passwords, tokens, s.logger)
	userService := service.NewUserService(repos, passwords, s.logger)
	tripService := service.NewTripService(repos, s.db, calculator, s.logger)
	challengeService := service.NewChallengeService(repos, s.logger)
	rewardService := service.NewRewardService(repos, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	tripHandler := handler.NewTripHandler(tripService, s.logger)
	challengeHandler := handler.NewChallengeHandler(challengeService, s.logger)
	rewardHandler := handler.NewRewardHandler(rewardService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/ranking", userHandler.HandleRanking)
		r.Get("/stats", userHandler.HandleGlobalStats)
		r.Get("/rewards", rewardHandler.HandleCatalog)
		// Static /users/me (below, authenticated) wins over this pattern.
		r.Get("/users/{id}", userHandler.HandleGetUser)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/users/me", userHandler.HandleMe)
			r.Put("/users/me", userHandler.HandleUpdateMe)

			r.Post("/trips", tripHandler.HandleRecord)
			r.Get("/trips", tripHandler.HandleList)
			r.Get("/trips/stats", tripHandler.HandleStats)

			r.Get("/challenges", challengeHandler.HandleList)

			r.Get("/rewards/affordable", rewardHandler.HandleAffordable)
			r.Post("/rewards/{id}/redeem", rewardHandler.HandleRedeem)
			r.Get("/redemptions", rewardHandler.HandleHistory)
			r.Patch("/redemptions/{id}/status", rewardHandler.HandleTransition)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s to
// drain, close the database (flushes the WAL, releases the file lock).
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
