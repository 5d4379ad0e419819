package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/crimeprep/internal/web/handlers"
	"github.com/crimeprep/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance
func NewServer(config *Config) *Server {
	server := &Server{config: config}

	// Setup routes
	server.setupRoutes()

	// Create HTTP server
	server.httpServer = &http.Server{
		Addr:         config.Server.Addr(),
		Handler:      middleware.CORS()(server.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// Handler returns the root handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	// Convert config for handlers (to avoid import cycle)
	handlerConfig := &handlers.Config{MaxBodyBytes: s.config.Server.MaxBodyBytes}
	handlerConfig.Features.PrepareEnabled = s.config.Features.PrepareEnabled
	handlerConfig.Features.EncodeColumns = s.config.Features.EncodeColumns

	apiHandler := &handlers.APIHandler{Config: handlerConfig, Started: time.Now()}
	tablesHandler := &handlers.TablesHandler{}
	cleanHandler := &handlers.CleanHandler{Config: handlerConfig}
	prepareHandler := &handlers.PrepareHandler{Config: handlerConfig}

	// Health stays outside authentication
	s.router.HandleFunc("/api/health", apiHandler.Health).Methods("GET")

	// API routes
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/stages", apiHandler.Stages).Methods("GET")
	api.HandleFunc("/tables/{name}", tablesHandler.GetTable).Methods("GET")
	api.HandleFunc("/clean", cleanHandler.Clean).Methods("POST")

	if s.config.Features.PrepareEnabled {
		api.HandleFunc("/prepare", prepareHandler.Prepare).Methods("POST")
	}

	// Apply middleware
	s.router.Use(middleware.RequestLogging())

	if s.config.Auth.Enabled {
		// Apply authentication middleware to API routes only
		api.Use(middleware.Authentication(s.config.Auth.APIKey))
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
