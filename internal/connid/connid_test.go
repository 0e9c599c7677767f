package connid_test

import (
	"context"
	"testing"

	"github.com/ErlanBelekov/async-sched/internal/connid"
)

func TestWithConnID_RoundTrips(t *testing.T) {
	ctx := connid.WithConnID(context.Background(), "abc-123")
	if got := connid.FromContext(ctx); got != "abc-123" {
		t.Fatalf("expected %q, got %q", "abc-123", got)
	}
}

func TestFromContext_EmptyWhenAbsent(t *testing.T) {
	if got := connid.FromContext(context.Background()); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestNextMessage_IncrementsPerConnection(t *testing.T) {
	ctx := connid.WithConnID(context.Background(), "abc-123")
	if got := connid.NextMessage(ctx); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := connid.NextMessage(ctx); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestNextMessage_ZeroWhenAbsent(t *testing.T) {
	if got := connid.NextMessage(context.Background()); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
