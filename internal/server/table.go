package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ErlanBelekov/async-sched/internal/domain"
	"github.com/ErlanBelekov/async-sched/internal/metrics"
	"github.com/ErlanBelekov/async-sched/internal/registry"
	"github.com/ErlanBelekov/async-sched/internal/task"
)

// entry is a running schedule: its task runner plus the schedule value it
// shares with that runner, kept here so List can snapshot it.
type entry struct {
	runner   *task.Runner
	schedule *domain.Schedule
}

// Table is the mutex-protected schedule table the server owns. Its
// methods are the server's Add/Remove/List contract; a Server holds one.
type Table struct {
	mu      sync.Mutex
	entries map[string]entry
	logger  *slog.Logger
}

func newTable(logger *slog.Logger) *Table {
	return &Table{entries: make(map[string]entry), logger: logger}
}

// Add installs name bound to schedule and cb, starting its task runner
// under ctx. An existing task under the same name is cancelled first, per
// spec: inserting under an existing name removes-and-cancels the prior
// task before installing the new one.
func (t *Table) Add(ctx context.Context, name string, cb registry.Callback, sched *domain.Schedule, args []any, kwargs map[string]any, ignore *task.IgnoreList, logger *slog.Logger) {
	t.mu.Lock()
	if prev, ok := t.entries[name]; ok {
		prev.runner.Stop()
	}
	r := task.New(name, cb, sched, args, kwargs, ignore, logger)
	t.entries[name] = entry{runner: r, schedule: sched}
	metrics.RegistrySize.Set(float64(len(t.entries)))
	t.mu.Unlock()

	r.Start(ctx)
}

// Remove cancels and deletes the task named name. Reports whether an
// entry existed.
func (t *Table) Remove(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		return false
	}
	e.runner.Stop()
	delete(t.entries, name)
	metrics.RegistrySize.Set(float64(len(t.entries)))
	return true
}

// Named is one entry of a List snapshot.
type Named struct {
	Name     string
	Schedule *domain.Schedule
}

// List returns a consistent snapshot of every currently running schedule.
func (t *Table) List() []Named {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Named, 0, len(t.entries))
	for name, e := range t.entries {
		out = append(out, Named{Name: name, Schedule: e.schedule})
	}
	return out
}

// StopAll cancels every running task, used during server shutdown.
func (t *Table) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		e.runner.Stop()
	}
	t.entries = make(map[string]entry)
}
