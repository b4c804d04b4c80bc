package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/helpdesk/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

const instructions = `IT helpdesk knowledge base.
Use "ask" for a complete answer with confidence and escalation, "search_kb"
for raw documentation sections, and "feedback" to rate an answer by its
record id.`

// Server exposes the helpdesk services as MCP tools and resources.
type Server struct {
	ports  *Ports
	log    *logger.Logger
	server *mcp.Server
}

// NewServer creates a server over ports. A nil log discards records.
func NewServer(ports *Ports, log *logger.Logger) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		ports: ports,
		log:   log.With("component", "mcp"),
		server: mcp.NewServer(
			&mcp.Implementation{Name: "helpdesk", Version: Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Debug("mcp serving on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.server
		}, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- httpServer.Serve(listener) }()
	s.log.Info("mcp listening", "addr", listener.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
