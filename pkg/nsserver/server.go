// Package nsserver is the Name Server's TCP front end: it accepts both
// client and storage-server connections on one listener, discriminates them
// by the first frame (REGISTER_CLIENT vs REGISTER_SS), and dispatches every
// subsequent command through the catalog. Grounded on pkg/ssserver.Server —
// same accept-loop/shutdown shape, generalized to a session object that
// tracks per-connection identity instead of a single stateless dispatch.
package nsserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/langos-dfs/langos/internal/logger"
	"github.com/langos-dfs/langos/pkg/catalog"
)

type Server struct {
	listenAddr      string
	catalog         *catalog.Catalog
	metrics         *serverMetrics
	executor        Executor
	shutdownTimeout time.Duration

	listenerMu sync.Mutex
	listener   net.Listener

	activeConns  sync.WaitGroup
	connCount    atomic.Int32
	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// Opt customizes a Server at construction. Currently only WithExecutor is
// exposed; other options can be added without changing New's signature.
type Opt func(*Server)

// WithExecutor wires an EXEC implementation. Without it, EXEC fails with a
// server-misc error naming the missing configuration.
func WithExecutor(e Executor) Opt {
	return func(s *Server) { s.executor = e }
}

func New(listenAddr string, cat *catalog.Catalog, shutdownTimeout time.Duration, opts ...Opt) *Server {
	s := &Server{
		listenAddr:      listenAddr,
		catalog:         cat,
		metrics:         newServerMetrics(),
		executor:        unimplementedExecutor{},
		shutdownTimeout: shutdownTimeout,
		shutdown:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve blocks accepting connections until ctx is cancelled or Stop is
// called, then drains in-flight connections up to shutdownTimeout.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("nsserver: listen on %s: %w", s.listenAddr, err)
	}
	s.listenerMu.Lock()
	s.listener = ln
	s.listenerMu.Unlock()

	logger.Info("name server listening", "addr", s.listenAddr)

	go func() {
		<-ctx.Done()
		logger.Debug("nsserver shutdown signal received", "error", ctx.Err())
		s.initiateShutdown()
	}()

	for {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logger.Debug("nsserver accept error", "error", acceptErr)
				continue
			}
		}

		s.activeConns.Add(1)
		s.connCount.Add(1)
		logger.Debug("nsserver connection accepted", "remote", conn.RemoteAddr(), "active", s.connCount.Load())

		go func(c net.Conn) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("nsserver connection panic", "recovered", r)
				}
				c.Close()
				s.activeConns.Done()
				s.connCount.Add(-1)
			}()
			newSession(c, s.catalog, s.metrics, s.executor).serve()
		}(conn)
	}
}

func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
		s.listenerMu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.listenerMu.Unlock()
	})
}

func (s *Server) gracefulShutdown() error {
	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("nsserver shutdown complete")
		return nil
	case <-time.After(s.shutdownTimeout):
		remaining := s.connCount.Load()
		logger.Warn("nsserver shutdown timeout exceeded", "active", remaining)
		return fmt.Errorf("nsserver: shutdown timeout, %d connections still active", remaining)
	}
}

// Stop requests shutdown and waits (bounded by shutdownTimeout).
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()
	return s.gracefulShutdown()
}
