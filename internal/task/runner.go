// Package task runs a single schedule to completion: sleeping until its
// next firing, invoking the bound callback, rescheduling, and repeating
// until the schedule goes terminal or is cancelled from outside.
package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/async-sched/internal/domain"
	"github.com/ErlanBelekov/async-sched/internal/metrics"
	"github.com/ErlanBelekov/async-sched/internal/registry"
)

// IgnoreList holds callback error values that should be logged at debug
// level instead of error level — the Go stand-in for the original's
// per-task ignore_exceptions list, used to silence expected, benign
// callback failures (a lock already held, a resource already deleted)
// without silencing genuine bugs.
type IgnoreList struct {
	mu    sync.RWMutex
	items []error
}

// NewIgnoreList builds an IgnoreList seeded with errs.
func NewIgnoreList(errs ...error) *IgnoreList {
	return &IgnoreList{items: append([]error(nil), errs...)}
}

// Add appends err to the list.
func (l *IgnoreList) Add(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, err)
}

// Matches reports whether err is, or wraps, one of the listed errors.
func (l *IgnoreList) Matches(err error) bool {
	if l == nil || err == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, ignored := range l.items {
		if errors.Is(err, ignored) {
			return true
		}
	}
	return false
}

// Runner owns the goroutine that repeatedly fires a single named
// schedule against its bound callback.
type Runner struct {
	Name     string
	Callback registry.Callback
	Schedule *domain.Schedule
	Args     []any
	Kwargs   map[string]any
	Ignore   *IgnoreList

	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Runner. Start must be called to begin firing it.
func New(name string, cb registry.Callback, sched *domain.Schedule, args []any, kwargs map[string]any, ignore *IgnoreList, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Name:     name,
		Callback: cb,
		Schedule: sched,
		Args:     args,
		Kwargs:   kwargs,
		Ignore:   ignore,
		logger:   logger.With("component", "task", "schedule", name),
		done:     make(chan struct{}),
	}
}

// Start launches the firing loop in its own goroutine. parent supplies
// cancellation (server shutdown); Stop cancels this one schedule only.
func (r *Runner) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	go r.loop(ctx)
}

// Stop cancels this schedule's loop and marks it terminal as of now.
// It does not block until the goroutine exits; use Done for that.
func (r *Runner) Stop() {
	now := time.Now()
	r.Schedule.Stop(now)
	if r.cancel != nil {
		r.cancel()
	}
}

// Done returns a channel that closes once the loop has exited for any
// reason (terminal schedule, cancellation, or context cancellation).
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	metrics.SchedulesRunning.Inc()
	defer metrics.SchedulesRunning.Dec()

	for {
		wait := r.Schedule.RunIn(time.Now())
		if wait < 0 {
			r.logger.Info("schedule terminal, exiting")
			return
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("schedule cancelled")
			return
		case <-timer.C:
		}

		now := time.Now()
		if !r.Schedule.CanRun(now) {
			continue
		}

		r.Schedule.Reschedule(now)
		r.fire(ctx, now)

		if !r.Schedule.Repeat {
			return
		}
	}
}

func (r *Runner) fire(ctx context.Context, now time.Time) {
	start := time.Now()
	defer func() {
		metrics.CallbackDuration.WithLabelValues(r.Name).Observe(time.Since(start).Seconds())
		if rec := recover(); rec != nil {
			metrics.CallbacksTotal.WithLabelValues(r.Name, "panic").Inc()
			r.logger.Error("callback panicked", "critical", true, "panic", rec)
		}
	}()

	_, err := r.Callback.Invoke(ctx, r.Args, r.Kwargs)
	if err == nil {
		metrics.CallbacksTotal.WithLabelValues(r.Name, "ok").Inc()
		return
	}

	metrics.CallbacksTotal.WithLabelValues(r.Name, "error").Inc()
	if r.Ignore.Matches(err) {
		r.logger.Debug("callback returned an ignored error", "error", err)
		return
	}
	r.logger.Error("callback failed", "critical", true, "error", err)
}
