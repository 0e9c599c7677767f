package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"

	"github.com/ErlanBelekov/async-sched/internal/domain"
	"github.com/ErlanBelekov/async-sched/internal/metrics"
	"github.com/ErlanBelekov/async-sched/internal/registry"
	"github.com/ErlanBelekov/async-sched/internal/wire"
)

func writeMessage(conn net.Conn, m wire.Message) error {
	data, err := wire.Encode(m)
	if err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}

// dispatch decodes one frame and routes it to its handler. A malformed
// frame is logged and dropped (nil response, connection stays open); a
// well-formed frame with an unrecognized tag gets an explicit Error
// reply, matching the decode-failure-vs-unknown-command distinction in
// the wire codec.
func (s *Server) dispatch(ctx context.Context, logger *slog.Logger, data []byte) wire.Message {
	msg, err := wire.Decode(data)
	if errors.Is(err, wire.ErrUnknownKind) {
		logger.Warn("unknown message kind", "error", err)
		metrics.MessagesTotal.WithLabelValues("unknown", "error").Inc()
		return wire.NewError("Unknown command given!")
	}
	if err != nil {
		logger.Error("decode failed", "error", err)
		metrics.MessagesTotal.WithLabelValues("unknown", "malformed").Inc()
		return nil
	}

	kind := string(msg.Kind())
	resp := s.route(ctx, logger, msg)
	outcome := "ok"
	if _, isErr := resp.(*wire.ErrorMsg); isErr {
		outcome = "error"
	}
	metrics.MessagesTotal.WithLabelValues(kind, outcome).Inc()
	return resp
}

func (s *Server) route(ctx context.Context, logger *slog.Logger, msg wire.Message) wire.Message {
	switch m := msg.(type) {
	case *wire.Quit:
		logger.Info("quit requested")
		go s.Stop()
		return wire.NewAck("Stopping server")

	case *wire.Update:
		return s.handleUpdate(m)

	case *wire.ListSchedules:
		return s.handleList()

	case *wire.RunCommand:
		return s.handleRun(ctx, m)

	case *wire.ScheduleCommand:
		return s.handleSchedule(m)

	case *wire.StopSchedule:
		return s.handleStop(m)

	default:
		logger.Warn("unhandled message kind", "kind", msg.Kind())
		return wire.NewError("Unknown command given!")
	}
}

func (s *Server) handleUpdate(m *wire.Update) wire.Message {
	if s.UpdatePath == "" {
		return wire.NewError("no update_path configured")
	}
	if m.ModuleName != "" {
		path := filepath.Join(s.UpdatePath, m.ModuleName)
		bindings, err := registry.LoadManifest(path)
		if err != nil {
			return wire.NewError(err.Error())
		}
		for _, b := range bindings {
			if err := s.Registry.Bind(b.Name, b.Target); err != nil {
				return wire.NewError(err.Error())
			}
		}
		return wire.NewAck(fmt.Sprintf("Updated Command %q", m.ModuleName))
	}
	if _, err := s.Registry.UpdateFromDirectory(s.UpdatePath); err != nil {
		return wire.NewError(err.Error())
	}
	return wire.NewAck("Updated Command <all>")
}

func (s *Server) handleList() wire.Message {
	snapshot := s.List()
	out := make([]wire.RunningSchedule, 0, len(snapshot))
	for _, n := range snapshot {
		out = append(out, wire.RunningSchedule{Name: n.Name, Schedule: wire.FromDomain(n.Schedule)})
	}
	return &wire.ListSchedules{Schedules: out}
}

func (s *Server) handleRun(ctx context.Context, m *wire.RunCommand) (resp wire.Message) {
	cb, ok := s.Registry.Lookup(m.CallbackName)
	if !ok {
		return wire.NewError(fmt.Errorf("%w: %q", domain.ErrCallbackNotFound, m.CallbackName).Error())
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("command panicked", "callback", m.CallbackName, "panic", rec)
			resp = wire.NewError(fmt.Sprintf("Error in command %q", m.CallbackName))
		}
	}()
	if _, err := cb.Invoke(ctx, m.Args, m.Kwargs); err != nil {
		return wire.NewError(fmt.Sprintf("Error in command %q", m.CallbackName))
	}
	return wire.NewAck(fmt.Sprintf("Command %q ran successfully!", m.CallbackName))
}

func (s *Server) handleSchedule(m *wire.ScheduleCommand) wire.Message {
	cb, ok := s.Registry.Lookup(m.CallbackName)
	if !ok {
		return wire.NewError(fmt.Errorf("%w: %q", domain.ErrCallbackNotFound, m.CallbackName).Error())
	}
	sched, err := m.Schedule.ToDomain()
	if err != nil {
		return wire.NewError(err.Error())
	}
	if err := domain.Validate(sched); err != nil {
		return wire.NewError(err.Error())
	}
	if err := s.AddWithArgs(m.Name, cb, sched, m.Args, m.Kwargs); err != nil {
		return wire.NewError(err.Error())
	}
	return wire.NewAck(fmt.Sprintf("Scheduled Command %q is running!", m.CallbackName))
}

func (s *Server) handleStop(m *wire.StopSchedule) wire.Message {
	// Remove is a no-op if the name is absent; Stop acknowledges either way.
	s.Remove(m.Name)
	return wire.NewAck(fmt.Sprintf("Stopped running the schedule named %q!", m.Name))
}
