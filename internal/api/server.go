// Package api serves the lifesync REST API and the WebSocket live-sync
// channel.
//
// The server follows the usual lifecycle:
//
//	srv, err := api.New(deps)
//	srv.Start(ctx)
//	defer srv.Close()
//
// All methods are safe for concurrent use.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"lifesync/internal/config"
	"lifesync/internal/logging"
	"lifesync/internal/session"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.ServerConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Sessions *session.Manager
	Version  string
}

// Server is the HTTP API server.
type Server struct {
	cfg      config.ServerConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	sessions *session.Manager
	version  string
	hub      *Hub
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a server. It does not listen until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	logger := logging.OrDiscard(deps.Logger).With("component", "api")
	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   logger,
		sessions: deps.Sessions,
		version:  deps.Version,
		hub:      NewHub(deps.WS, logger),
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listen address and serves in the background. The hub is
// shut down when ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info("API server listening", "address", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close shuts the server down, waiting for in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
