// Package api provides the HTTP API used by the chat widget: chat turns,
// feedback on answers, and a health probe.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driving"
	"github.com/custodia-labs/helpdesk/internal/logger"
)

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("api: answer service is required")

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Health describes the backends reported by /api/health.
type Health struct {
	IndexBackend string
	LLMModel     string
}

// Ports aggregates the services the HTTP API exposes.
type Ports struct {
	Answer   driving.AnswerService
	Feedback driving.FeedbackService
	Health   Health
}

// Server serves the HTTP API.
type Server struct {
	ports  Ports
	log    *logger.Logger
	engine *gin.Engine

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a server. Feedback is optional; without it the feedback
// endpoint answers 404 for every record.
func NewServer(ports Ports, log *logger.Logger) (*Server, error) {
	if ports.Answer == nil {
		return nil, ErrMissingAnswerService
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{ports: ports, log: log.With("component", "api")}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on addr and serves in the background.
// Use ":0" to pick a free port; Addr reports the bound address.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", "error", err)
		}
	}()

	s.log.Info("http api listening", "addr", listener.Addr().String())
	return nil
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	if err := s.Start(addr); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
