// Package server manages the HTTP server and API routes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pinta-partners/maggid/internal/app"
	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/handlers"
)

// Server manages the HTTP server and routes
type Server struct {
	app    *app.App
	router *http.ServeMux
	server *http.Server
}

// New creates a new HTTP server with the given app
func New(application *app.App) *Server {
	s := &Server{
		app: application,
	}

	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // LLM-backed queries can run long
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes registers the API routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	askHandler := handlers.NewAskHandler(s.app, s.app.Logger)
	runsHandler := handlers.NewRunsHandler(s.app.StorageManager.RunStorage(), s.app.Logger)

	mux.HandleFunc("/api/ask", askHandler.HandleAsk)
	mux.HandleFunc("/api/runs", runsHandler.HandleList)
	mux.HandleFunc("/api/runs/", runsHandler.HandleGet)
	mux.HandleFunc("/api/health", s.handleHealth)

	return mux
}

// handleHealth reports service status and corpus size
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","version":%q,"corpus_passages":%d}`+"\n",
		common.GetVersion(), s.app.Corpus().Len())
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.app.Config.Server.Host, s.app.Config.Server.Port)

	s.app.Logger.Info().
		Str("address", addr).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
