package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/app"
	"github.com/ClareAI/astra-voice-admin/internal/config"
	"github.com/ClareAI/astra-voice-admin/internal/handler"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Server is the admin console backend
type Server struct {
	config         config.Config
	app            *app.App
	router         *mux.Router
	handlerManager *handler.HandlerManager
}

// NewServer wires the console services and routes
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	a, err := app.New(ctx, cfg, app.Options{Repositories: true, Audit: true})
	if err != nil {
		return nil, err
	}

	deps := handler.Dependencies{
		Config:      cfg,
		Sessions:    a.Sessions,
		Users:       a.Users,
		Assistants:  a.Assistants,
		Voices:      a.Voices,
		Assignments: a.Assignments,
		RepoManager: a.Repos,
		Notices:     a.Notices,
		VerifyWait:  cfg.VerifyWait,
	}
	if a.Audit != nil {
		deps.Audit = a.Audit
	}

	router := mux.NewRouter()
	handlerManager := handler.NewHandlerManager(deps)
	handlerManager.SetupAllRoutes(router)

	return &Server{
		config:         cfg,
		app:            a,
		router:         router,
		handlerManager: handlerManager,
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Base().Info("Starting server", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Base().Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Close releases the session store and database
func (s *Server) Close() error {
	return s.app.Close()
}

func main() {
	// Load .env file for local development if it exists.
	// This will not override environment variables already set.
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: .env file not found or skipped: %v", err)
	}

	if _, err := logger.Init(os.Getenv("LOG_ENV")); err != nil {
		log.Printf("Failed to initialize zap logger, falling back to std log: %v", err)
	}
	defer logger.Sync()

	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := NewServer(ctx, cfg)
	if err != nil {
		logger.Base().Fatal("Failed to create server", zap.Error(err))
	}
	defer server.Close()

	logger.Base().Info("Server initialized",
		zap.String("port", cfg.Port),
		zap.String("api", cfg.API.APIServiceURL),
		zap.String("session_store", cfg.Session.Store),
		zap.Bool("audit", cfg.Audit != nil),
	)

	if err := server.Run(ctx); err != nil {
		logger.Base().Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
