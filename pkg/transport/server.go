package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/charmbracelet/log"

	"stepviz/pkg/controller"
)

// Server accepts TCP clients and runs one Session per connection
type Server struct {
	logger *log.Logger
	opts   []controller.Option

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

func NewServer(logger *log.Logger, opts ...controller.Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// ListenAndServe listens on addr and serves until ctx is done
func (srv *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen failed: %w", err)
	}
	return srv.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is done, then waits for the open
// sessions to wind down
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv.logger.Info("Listening", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				srv.wg.Wait()
				return nil
			}
			srv.logger.Warn("Accept error", "error", err)
			continue
		}

		s := NewSession(conn, srv.logger, srv.opts...)
		srv.track(s)
		srv.logger.Debug("New connection", "remote", conn.RemoteAddr().String(), "session", s.ID.String())

		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			defer srv.untrack(s)
			if err := s.Serve(ctx); err != nil {
				srv.logger.Warn("Session ended with error", "session", s.ID.String(), "error", err)
			}
		}()
	}
}

// Sessions returns the number of connected clients
func (srv *Server) Sessions() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.sessions)
}

func (srv *Server) track(s *Session) {
	srv.mu.Lock()
	srv.sessions[s.ID.String()] = s
	srv.mu.Unlock()
}

func (srv *Server) untrack(s *Session) {
	srv.mu.Lock()
	delete(srv.sessions, s.ID.String())
	srv.mu.Unlock()
}
