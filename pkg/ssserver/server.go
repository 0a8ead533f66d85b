// Package ssserver is a Storage Server's TCP front end: it accepts
// connections from both the Name Server (CREATE/DELETE/UNDO/CHECKPOINT/...)
// and clients (READ/WRITE/STREAM) and dispatches each to pkg/ssengine.
// Grounded on the teacher's pkg/adapter/nfs/nfs_adapter.go::Serve — semaphore
// optional, context-cancel monitor goroutine, WaitGroup drain, panic
// recovery per connection — generalized down to this protocol's single
// listener and much smaller verb set.
package ssserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/langos-dfs/langos/internal/logger"
	"github.com/langos-dfs/langos/pkg/ssengine"
)

type Server struct {
	listenAddr      string
	engine          *ssengine.Engine
	shutdownTimeout time.Duration

	listenerMu sync.Mutex
	listener   net.Listener

	activeConns  sync.WaitGroup
	connCount    atomic.Int32
	shutdownOnce sync.Once
	shutdown     chan struct{}
}

func New(listenAddr string, engine *ssengine.Engine, shutdownTimeout time.Duration) *Server {
	return &Server{
		listenAddr:      listenAddr,
		engine:          engine,
		shutdownTimeout: shutdownTimeout,
		shutdown:        make(chan struct{}),
	}
}

// Serve blocks accepting connections until ctx is cancelled or Stop is
// called, then drains in-flight connections up to shutdownTimeout.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("ssserver: listen on %s: %w", s.listenAddr, err)
	}
	s.listenerMu.Lock()
	s.listener = ln
	s.listenerMu.Unlock()

	logger.Info("storage server listening", "addr", s.listenAddr)

	go func() {
		<-ctx.Done()
		logger.Debug("ssserver shutdown signal received", "error", ctx.Err())
		s.initiateShutdown()
	}()

	for {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logger.Debug("ssserver accept error", "error", acceptErr)
				continue
			}
		}

		s.activeConns.Add(1)
		s.connCount.Add(1)
		logger.Debug("ssserver connection accepted", "remote", conn.RemoteAddr(), "active", s.connCount.Load())

		go func(c net.Conn) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("ssserver connection panic", "recovered", r)
				}
				c.Close()
				s.activeConns.Done()
				s.connCount.Add(-1)
			}()
			handleConnection(c, s.engine)
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
		logger.Info("ssserver shutdown complete")
		return nil
	case <-time.After(s.shutdownTimeout):
		remaining := s.connCount.Load()
		logger.Warn("ssserver shutdown timeout exceeded", "active", remaining)
		return fmt.Errorf("ssserver: shutdown timeout, %d connections still active", remaining)
	}
}

// Stop requests shutdown and waits (bounded by shutdownTimeout).
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()
	return s.gracefulShutdown()
}
