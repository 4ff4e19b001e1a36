// Package mcp exposes the flight operations query surface over the Model
// Context Protocol.
//
// Every tool returns a JSON envelope with an "ok" flag: successful calls
// carry the payload under "data", failures carry a message and an HTTP-style
// code under "error". Planner clients rely on this shape to detect route
// ambiguity and short-circuit multi-step plans.
package mcp

import (
	"encoding/json"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/flightops-ai/flightops/internal/ops"
)

// Server wraps the MCP server with the flight operations service layer.
type Server struct {
	mcpServer *mcpserver.MCPServer
	svc       *ops.Service
	logger    *slog.Logger
}

// New creates and configures an MCP server with all flight query tools.
func New(svc *ops.Service, logger *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"flightops",
		"0.1.0",
		mcpserver.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// envelopeResult serializes an operation envelope as the tool result text.
func envelopeResult(env ops.Envelope) *mcplib.CallToolResult {
	data, err := json.Marshal(env)
	if err != nil {
		data, _ = json.Marshal(ops.Errorf(500, "encode response: %v", err))
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}
}
