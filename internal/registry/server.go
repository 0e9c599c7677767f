package registry

import (
	"sync"
	"sync/atomic"

	"github.com/ErlanBelekov/async-sched/internal/domain"
)

// Server is the subset of server behavior a callback needs to reach back
// into: adding or removing a running schedule from inside its own
// callback body. It is declared here, not imported from internal/server,
// so that internal/server can depend on internal/registry without a cycle.
type Server interface {
	Add(name string, cb Callback, schedule *domain.Schedule) error
	Remove(name string) bool
}

// NoopServer is the stand-in installed before any real server calls
// SetServer. Schedules registered against it are dropped, not queued for
// replay once a real server attaches — matching the documented behavior of
// the original module's module-level FakeScheduler, which never replays
// what was added while it was live.
type NoopServer struct {
	dropped atomic.Int64
}

func (n *NoopServer) Add(name string, cb Callback, schedule *domain.Schedule) error {
	n.dropped.Add(1)
	return nil
}

func (n *NoopServer) Remove(name string) bool {
	return false
}

// Dropped reports how many Add calls this stand-in has swallowed.
func (n *NoopServer) Dropped() int64 {
	return n.dropped.Load()
}

var (
	currentMu sync.RWMutex
	current   Server = &NoopServer{}
)

// CurrentServer returns the process-wide server a callback should talk to
// when it wants to schedule or cancel work without holding a direct
// reference to the server that dispatched it.
func CurrentServer() Server {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetServer installs srv as the process-wide current server. A real server
// calls this once it starts serving. The pointer is not cleared when that
// server stops — it is replaced only by the next SetServer call, typically
// the next server to start — so a late callback that outlives a stopped
// server still reaches it rather than silently falling back to the noop
// stand-in. Passing nil explicitly installs a fresh NoopServer, for tests
// that need to reset process-wide state between runs.
func SetServer(srv Server) {
	currentMu.Lock()
	defer currentMu.Unlock()
	if srv == nil {
		srv = &NoopServer{}
		current = srv
		return
	}
	current = srv
}
