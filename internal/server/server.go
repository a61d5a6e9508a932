// Package server is the session and dispatch core: it registers the MCP
// tool surface, resolves each call's project scope, and runs the stdio and
// streamable-HTTP transports.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kuzumem/kuzumem-mcp/internal/config"
	"github.com/kuzumem/kuzumem-mcp/internal/memory"
)

// Version is stamped via ldflags at release time.
var Version = "dev"

// Server dispatches MCP tool calls into the memory service.
type Server struct {
	svc      *memory.Service
	cfg      *config.Config
	logger   *slog.Logger
	mcp      *mcp.Server
	sessions *SessionRegistry
	handlers map[string]mcp.ToolHandler
	tools    map[string]*mcp.Tool
}

// New builds the server and registers every tool.
func New(svc *memory.Service, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:      svc,
		cfg:      cfg,
		logger:   logger,
		sessions: NewSessionRegistry(),
		handlers: make(map[string]mcp.ToolHandler),
		tools:    make(map[string]*mcp.Tool),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "kuzumem-mcp",
			Version: Version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// MCPServer exposes the underlying SDK server for transports.
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// Sessions exposes the registry for stats and tests.
func (s *Server) Sessions() *SessionRegistry { return s.sessions }

func (s *Server) addTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.mcp.AddTool(tool, handler)
	s.handlers[tool.Name] = handler
	s.tools[tool.Name] = tool
}

// RunStdio serves line-delimited JSON-RPC on stdin/stdout until the context
// ends. Stderr carries logs plus the readiness line clients wait for.
func (s *Server) RunStdio(ctx context.Context) error {
	go s.evictionLoop(ctx)
	fmt.Fprintln(os.Stderr, "kuzumem-mcp ready (stdio)")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// evictionLoop scans for idle sessions on a fixed period.
func (s *Server) evictionLoop(ctx context.Context) {
	ticker := time.NewTicker(sessionScanPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped := s.sessions.evictIdle(sessionIdleTimeout); len(dropped) > 0 {
				s.logger.Info("evicted idle sessions", "count", len(dropped))
			}
		}
	}
}
