package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/flightops-ai/flightops/internal/ops"
)

// Server is the flightops HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	svc        *ops.Service
	logger     *slog.Logger
}

// Config holds the dependencies and settings for creating a Server.
type Config struct {
	MCPServer *mcpserver.MCPServer
	Service   *ops.Service
	Logger    *slog.Logger

	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New creates an HTTP server with the MCP transport mounted at /mcp.
func New(cfg Config) *Server {
	s := &Server{
		svc:    cfg.Service,
		logger: cfg.Logger,
	}

	mux := http.NewServeMux()

	// MCP StreamableHTTP transport.
	mcpHTTP := mcpserver.NewStreamableHTTPServer(cfg.MCPServer)
	mux.Handle("/mcp", mcpHTTP)

	// Health (no middleware requirements, used by orchestrators).
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Middleware chain (outermost executes first):
	// request ID → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.handler = handler
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	env := s.svc.Health(r.Context())

	status := http.StatusOK
	if !env.OK {
		status = env.Error.Code
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
