// Package server implements the TCP scheduler server: a listener that
// accepts client connections, dispatches their requests against a
// callback registry and schedule table, and owns the lifecycle of every
// running schedule.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/ErlanBelekov/async-sched/internal/connid"
	"github.com/ErlanBelekov/async-sched/internal/domain"
	"github.com/ErlanBelekov/async-sched/internal/metrics"
	"github.com/ErlanBelekov/async-sched/internal/registry"
	"github.com/ErlanBelekov/async-sched/internal/task"
	"golang.org/x/sync/errgroup"
)

// Server owns a TCP listener, a callback registry, and the schedule
// table. It is the sole mutator of both, reached only from its own
// accept/dispatch goroutines.
type Server struct {
	Registry   *registry.Registry
	UpdatePath string
	Ignore     *task.IgnoreList

	logger   *slog.Logger
	table    *Table
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc

	serving atomic.Bool
	conns   *errgroup.Group
}

// New builds a Server. Call Start to begin accepting connections.
func New(reg *registry.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")
	return &Server{
		Registry: reg,
		Ignore:   task.NewIgnoreList(),
		logger:   logger,
		table:    newTable(logger),
	}
}

// Start binds addr:port and begins accepting connections in the
// background. It returns once the listener is bound; accept failures
// after that are logged, not returned.
func (s *Server) Start(addr string, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return fmt.Errorf("server: listen %s:%d: %w", addr, port, err)
	}
	s.listener = lis
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.conns = &errgroup.Group{}
	s.serving.Store(true)
	metrics.ServerStartTime.SetToCurrentTime()

	registry.SetServer(s)

	s.logger.Info("server listening", "addr", lis.Addr().String())
	go s.acceptLoop()
	return nil
}

// Addr returns the port the listener actually bound to, useful when Start
// was called with port 0.
func (s *Server) Addr() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// IsServing reports whether the server is currently accepting connections.
func (s *Server) IsServing() bool {
	return s.serving.Load()
}

// Stop closes the listener, cancels every running schedule task, and
// waits for in-flight connection handlers to observe the shutdown. Because
// it waits for every connection handler to return, a direct call from a
// handler goroutine does not return; the Quit handler starts Stop in a
// separate goroutine and its acknowledgement is written while Stop waits.
func (s *Server) Stop() {
	if !s.serving.CompareAndSwap(true, false) {
		return
	}
	s.logger.Info("server stopping")
	if s.listener != nil {
		s.listener.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.table.StopAll()
	s.conns.Wait()
}

// Add installs name bound to cb/schedule with no positional or keyword
// arguments, satisfying registry.Server for callbacks that schedule work
// on themselves.
func (s *Server) Add(name string, cb registry.Callback, schedule *domain.Schedule) error {
	return s.AddWithArgs(name, cb, schedule, nil, nil)
}

// AddWithArgs is Add plus the positional/keyword arguments ScheduleCommand
// carries over the wire.
func (s *Server) AddWithArgs(name string, cb registry.Callback, schedule *domain.Schedule, args []any, kwargs map[string]any) error {
	if err := domain.Validate(schedule); err != nil {
		return err
	}
	s.table.Add(s.ctx, name, cb, schedule, args, kwargs, s.Ignore, s.logger)
	return nil
}

// Remove cancels and deletes the schedule named name.
func (s *Server) Remove(name string) bool {
	return s.table.Remove(name)
}

// List returns a snapshot of every running schedule.
func (s *Server) List() []Named {
	return s.table.List()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.IsServing() {
				return
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.conns.Go(func() error {
			s.handleConn(conn)
			return nil
		})
	}
}

func (s *Server) handleConn(conn net.Conn) {
	id := connid.New()
	ctx := connid.WithConnID(s.ctx, id)
	logger := s.logger.With("conn", id, "remote", conn.RemoteAddr().String())
	metrics.ConnectionsOpen.Inc()

	defer func() {
		conn.Close()
		metrics.ConnectionsOpen.Dec()
		logger.Info("connection closed")
	}()

	logger.Info("connection accepted")

	buf := make([]byte, 64*1024)
	for {
		if !s.IsServing() {
			return
		}
		conn.SetReadDeadline(time.Now().Add(30 * time.Minute))
		n, err := conn.Read(buf)
		if n == 0 {
			if err != nil {
				return
			}
			continue
		}

		seq := connid.NextMessage(ctx)
		resp := s.dispatch(ctx, logger.With("msg_seq", seq), buf[:n])
		if resp == nil {
			continue
		}
		if err := writeMessage(conn, resp); err != nil {
			logger.Error("write failed", "error", err)
			return
		}
	}
}
