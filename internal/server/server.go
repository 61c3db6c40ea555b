// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage, services and routes into
// a running HTTP server.
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

	"codeberg.org/oliverandrich/notesapp/internal/config"
	"codeberg.org/oliverandrich/notesapp/internal/database"
	"codeberg.org/oliverandrich/notesapp/internal/handlers"
	"codeberg.org/oliverandrich/notesapp/internal/i18n"
	"codeberg.org/oliverandrich/notesapp/internal/identity"
	"codeberg.org/oliverandrich/notesapp/internal/repository"
	authsvc "codeberg.org/oliverandrich/notesapp/internal/services/auth"
	"codeberg.org/oliverandrich/notesapp/internal/services/email"
	"codeberg.org/oliverandrich/notesapp/internal/services/otp"
	"codeberg.org/oliverandrich/notesapp/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository
	repo := repository.New(db)

	// Services
	mailer, err := email.NewService(&cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to create email service: %w", err)
	}

	// The ledger is process-local, volatile state: a restart invalidates
	// all outstanding codes, and horizontally scaled deployments need a
	// shared otp.Store instead.
	otpService := otp.NewService(repo, mailer, otp.NewLedger(), otp.Config{
		TTL:          time.Duration(cfg.OTP.TTLMinutes) * time.Minute,
		AttemptLimit: cfg.OTP.AttemptLimit,
	})
	otpService.StartSweeper(ctx, 5*time.Minute)

	authService := authsvc.NewService(repo, otpService)

	secureCookies := !config.IsLocalhost(cfg.Server.Host)
	sessions, err := session.NewManager(&cfg.Session, secureCookies)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, repo, authService, sessions)

	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(e *echo.Echo, repo *repository.Repository, authService *authsvc.Service, sessions *session.Manager, providers ...identity.Provider) {
	authHandlers := handlers.NewAuth(authService, sessions, providers...)
	authHandlers.CheckMX = true
	noteHandlers := handlers.NewNotes(repo)

	e.GET("/health", handlers.Health)

	api := e.Group("/api")

	api.POST("/auth/send-otp", authHandlers.SendOTP)
	api.POST("/auth/verify-otp", authHandlers.VerifyOTP)
	api.POST("/auth/oauth/:provider", authHandlers.OAuthCallback)
	api.POST("/auth/logout", authHandlers.Logout)

	authed := api.Group("", requireSession(sessions, repo))
	authed.GET("/auth/me", authHandlers.Me)
	authed.GET("/notes", noteHandlers.List)
	authed.POST("/notes", noteHandlers.Create)
	authed.PATCH("/notes/:id", noteHandlers.Update)
	authed.DELETE("/notes/:id", noteHandlers.Delete)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
