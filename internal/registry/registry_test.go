package registry_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ErlanBelekov/async-sched/internal/domain"
	"github.com/ErlanBelekov/async-sched/internal/registry"
)

func echo(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return args, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := registry.New(nil)
	reg.Register("echo", registry.SyncFunc(echo))

	cb, ok := reg.Lookup("echo")
	if !ok {
		t.Fatal("expected echo to be registered")
	}
	out, err := cb.Invoke(context.Background(), []any{"hi"}, nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got, ok := out.([]any); !ok || len(got) != 1 || got[0] != "hi" {
		t.Fatalf("unexpected invoke result: %#v", out)
	}
}

func TestRegistry_LookupMissing(t *testing.T) {
	reg := registry.New(nil)
	if _, ok := reg.Lookup("nope"); ok {
		t.Fatal("expected lookup of unregistered name to fail")
	}
}

func TestRegistry_Bind(t *testing.T) {
	reg := registry.New(nil)
	reg.Register("print", registry.SyncFunc(echo))

	if err := reg.Bind("greeting", "print"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, ok := reg.Lookup("greeting"); !ok {
		t.Fatal("expected greeting alias to resolve")
	}

	if err := reg.Bind("broken", "missing"); err == nil {
		t.Fatal("expected bind to an unregistered target to fail")
	}
}

func TestAsyncFunc_RespectsCancellation(t *testing.T) {
	var fn registry.AsyncFunc = func(ctx context.Context, args []any, kwargs map[string]any) <-chan registry.Result {
		ch := make(chan registry.Result)
		return ch // never sent to
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fn.Invoke(ctx, nil, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestUpdateFromDirectory_AppliesBindings(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New(nil)
	reg.Register("print", registry.SyncFunc(echo))

	manifest := "bindings:\n  - name: greeting\n    target: print\n"
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	applied, err := reg.UpdateFromDirectory(dir)
	if err != nil {
		t.Fatalf("update from directory: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 binding applied, got %d", applied)
	}
	if _, ok := reg.Lookup("greeting"); !ok {
		t.Fatal("expected greeting to be bound after directory scan")
	}
}

func TestUpdateFromDirectory_SkipsUnknownTargetWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New(nil)
	reg.Register("print", registry.SyncFunc(echo))

	manifest := "bindings:\n  - name: broken\n    target: missing\n  - name: greeting\n    target: print\n"
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	applied, err := reg.UpdateFromDirectory(dir)
	if err != nil {
		t.Fatalf("update from directory: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected only the valid binding to apply, got %d", applied)
	}
}

func TestDirWatcher_ReloadsOnManifestWrite(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New(nil)
	reg.Register("print", registry.SyncFunc(echo))

	w, err := registry.NewDirWatcher(dir, reg)
	if err != nil {
		t.Fatalf("new dir watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	manifest := "bindings:\n  - name: greeting\n    target: print\n"
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := reg.Lookup("greeting"); ok {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("expected greeting binding to appear after debounced reload")
}

func TestNoopServer_DropsAdd(t *testing.T) {
	n := &registry.NoopServer{}
	sched := domain.New(time.Now(), 0, nil, false)
	if err := n.Add("x", registry.SyncFunc(echo), sched); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Dropped() != 1 {
		t.Fatalf("expected 1 dropped add, got %d", n.Dropped())
	}
	if n.Remove("x") {
		t.Fatal("expected Remove on noop server to report false")
	}
}

func TestCurrentServer_DefaultsToNoop(t *testing.T) {
	registry.SetServer(nil)
	if _, ok := registry.CurrentServer().(*registry.NoopServer); !ok {
		t.Fatalf("expected default current server to be a NoopServer, got %T", registry.CurrentServer())
	}
}
