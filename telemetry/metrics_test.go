package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	first := TicksTotal
	Init()
	if TicksTotal != first {
		t.Error("Init() re-registered metrics")
	}
	if TicksTotal == nil || FetchFailures == nil || TickDuration == nil {
		t.Error("metrics not initialized")
	}
}

func TestHelpersTolerateUninitialized(t *testing.T) {
	// Helpers nil-check so code paths exercised before Init (or in tests that
	// never call it) don't panic. Init may already have run in this process;
	// either way these must not panic.
	CountTick(time.Second)
	CountFetchFailure()
	CountTransition(true)
	CountTransition(false)
	CountNotification(true)
	CountNotification(false)
	SetTracked(3)
	SetLive(1)
}

func TestCorrelationRoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Fatalf("GetCorrelation(empty ctx) = %q, want empty", got)
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Fatalf("GetCorrelation() = %q, want abc-123", got)
	}
	if l := LoggerWithCorr(ctx); l == nil {
		t.Fatal("LoggerWithCorr returned nil")
	}
}
