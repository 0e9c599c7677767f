// Package registry holds the named callback table a scheduler server
// dispatches RunCommand and ScheduleCommand requests against, plus the
// directory-backed hot-reload mechanism that lets an operator rebind
// schedule names to callbacks without restarting the process.
package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Registry is a name -> Callback table. Registration is idempotent by
// name: registering under an existing name replaces it.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[string]Callback
	logger    *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		callbacks: make(map[string]Callback),
		logger:    logger.With("component", "registry"),
	}
}

// Register inserts or replaces the callback bound to name.
func (r *Registry) Register(name string, cb Callback) Callback {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[name] = cb
	return cb
}

// RegisterAuto registers fn under its own declared function name, the Go
// stand-in for the original's register() called as a bare decorator with
// no explicit name.
func (r *Registry) RegisterAuto(fn SyncFunc) Callback {
	name := funcName(fn)
	return r.Register(name, fn)
}

func funcName(fn any) string {
	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndexByte(full, '.'); i >= 0 {
		full = full[i+1:]
	}
	return strings.TrimSuffix(full, "-fm")
}

// Lookup returns the callback registered under name, if any.
func (r *Registry) Lookup(name string) (Callback, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.callbacks[name]
	return cb, ok
}

// Names returns every registered callback name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for name := range r.callbacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many callbacks are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks)
}

// Bind registers alias under the callback already registered as target.
// UpdateFromDirectory uses this to apply a manifest binding; it is also
// useful directly in tests.
func (r *Registry) Bind(alias, target string) error {
	cb, ok := r.Lookup(target)
	if !ok {
		return fmt.Errorf("registry: bind %q: target callback %q not registered", alias, target)
	}
	r.Register(alias, cb)
	return nil
}
