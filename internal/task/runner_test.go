package task_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ErlanBelekov/async-sched/internal/domain"
	"github.com/ErlanBelekov/async-sched/internal/registry"
	"github.com/ErlanBelekov/async-sched/internal/task"
)

func TestRunner_FiresOneShotThenStops(t *testing.T) {
	var calls atomic.Int32
	cb := registry.SyncFunc(func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		calls.Add(1)
		return nil, nil
	})

	sched := domain.New(time.Now().Add(-time.Millisecond), 0, nil, false)
	r := task.New("once", cb, sched, nil, nil, nil, nil)
	r.Start(context.Background())

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not finish within timeout")
	}

	if calls.Load() != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls.Load())
	}
}

func TestRunner_StopCancelsRepeatingSchedule(t *testing.T) {
	var calls atomic.Int32
	cb := registry.SyncFunc(func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		calls.Add(1)
		return nil, nil
	})

	sched := domain.NewRepeating(time.Now().Add(-time.Millisecond), 0, nil)
	sched.Milliseconds = 10
	r := task.New("repeating", cb, sched, nil, nil, nil, nil)
	r.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	r.Stop()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop within timeout")
	}

	if calls.Load() == 0 {
		t.Fatal("expected at least one call before stopping")
	}
}

func TestRunner_MarksTerminalBeforeCallbackReturns(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	cb := registry.SyncFunc(func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		close(started)
		<-release
		return nil, nil
	})

	sched := domain.New(time.Now().Add(-time.Millisecond), 0, nil, false)
	r := task.New("blocking", cb, sched, nil, nil, nil, nil)
	r.Start(context.Background())

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("callback did not start within timeout")
	}

	if !sched.PastEnd(time.Now()) {
		t.Fatal("expected the schedule to already be marked terminal while the callback is still running")
	}

	close(release)
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not finish within timeout")
	}
}

func TestIgnoreList_SuppressesListedErrors(t *testing.T) {
	benign := errors.New("already deleted")
	ignore := task.NewIgnoreList(benign)

	if !ignore.Matches(benign) {
		t.Fatal("expected benign error to match")
	}
	if ignore.Matches(errors.New("something else")) {
		t.Fatal("expected unrelated error not to match")
	}
}

func TestRunner_ParentCancellationStopsLoop(t *testing.T) {
	cb := registry.SyncFunc(func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
		return nil, nil
	})

	sched := domain.NewRepeating(time.Now().Add(time.Hour), 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	r := task.New("far-future", cb, sched, nil, nil, nil, nil)
	r.Start(ctx)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not observe parent cancellation")
	}
}
