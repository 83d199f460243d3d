// Package server binds the relief HTTP listener and reports when it is up.
package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"relief/internal/models"
	"strconv"
	"sync"
	"sync/atomic"
)

var (
	// ErrAlreadyListening is returned by Listen when the socket is already bound.
	ErrAlreadyListening = errors.New("server is already listening")
	// ErrNotListening is returned by Serve before a successful Listen.
	ErrNotListening = errors.New("server is not listening")
)

// Logger is the logging capability the server needs. *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
}

// State is the lifecycle state of a Server.
type State int32

const (
	Starting State = iota
	Listening
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Listening:
		return "listening"
	default:
		return "unknown"
	}
}

// Server wraps an http.Server whose listener is bound explicitly, so the
// startup line is only logged once the port is really open.
type Server struct {
	cfg        models.ServerConfig
	httpServer *http.Server
	logger     Logger

	mu       sync.Mutex
	listener net.Listener
	state    atomic.Int32
}

// New creates a Server for handler. Nothing is bound until Listen.
func New(cfg models.ServerConfig, handler http.Handler, logger Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Listen binds the listening socket and moves the server to Listening.
// A bind failure leaves the server in Starting.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyListening
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer.Addr = ln.Addr().String()
	s.state.Store(int32(Listening))

	port := ln.Addr().(*net.TCPAddr).Port
	s.logger.Info(fmt.Sprintf("server is running on port: %d", port), "port", port)
	return nil
}

// Serve accepts connections on the bound listener until the server is closed.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if ln == nil {
		return ErrNotListening
	}
	return s.httpServer.Serve(ln)
}

// ListenAndServe binds and then serves. It only returns on failure.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound TCP port, or 0 before Listen.
func (s *Server) Port() int {
	addr, ok := s.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}
	return addr.Port
}

// Close drops the listener and every open connection immediately.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if err := s.httpServer.Close(); err != nil {
		return err
	}
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
	}
	return nil
}
