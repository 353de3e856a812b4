package achievements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hackboard/badge-engine/pkg/logger"
	"github.com/hackboard/badge-engine/test/mocks"
)

func testLogger() *logger.Logger {
	return logger.New("error", "console", "stdout")
}

func TestDebouncerSuppressesWithinWindow(t *testing.T) {
	cache := mocks.NewMockCache()
	d := NewDebouncer(cache, 30*time.Second, testLogger())
	ctx := context.Background()

	if !d.ShouldRun(ctx, 1) {
		t.Fatal("first pass should run")
	}
	if d.ShouldRun(ctx, 1) {
		t.Error("second pass within window should be suppressed")
	}
}

func TestDebouncerWindowsArePerUser(t *testing.T) {
	cache := mocks.NewMockCache()
	d := NewDebouncer(cache, 30*time.Second, testLogger())
	ctx := context.Background()

	if !d.ShouldRun(ctx, 1) {
		t.Fatal("first pass for user 1 should run")
	}
	if !d.ShouldRun(ctx, 2) {
		t.Error("user 2 should not be suppressed by user 1's window")
	}
}

func TestDebouncerAllowsAfterWindowExpires(t *testing.T) {
	cache := mocks.NewMockCache()
	now := time.Now()
	cache.Now = func() time.Time { return now }

	d := NewDebouncer(cache, 30*time.Second, testLogger())
	ctx := context.Background()

	if !d.ShouldRun(ctx, 1) {
		t.Fatal("first pass should run")
	}

	now = now.Add(29 * time.Second)
	if d.ShouldRun(ctx, 1) {
		t.Error("pass at 29s should still be suppressed")
	}

	now = now.Add(2 * time.Second)
	if !d.ShouldRun(ctx, 1) {
		t.Error("pass after the window expires should run")
	}
}

func TestDebouncerFailsOpen(t *testing.T) {
	cache := mocks.NewMockCache()
	cache.SetErr = errors.New("connection refused")

	d := NewDebouncer(cache, 30*time.Second, testLogger())

	if !d.ShouldRun(context.Background(), 1) {
		t.Error("pass should run when the cache is unreachable")
	}
}

func TestDebouncerReset(t *testing.T) {
	cache := mocks.NewMockCache()
	d := NewDebouncer(cache, 30*time.Second, testLogger())
	ctx := context.Background()

	if !d.ShouldRun(ctx, 1) {
		t.Fatal("first pass should run")
	}

	d.Reset(ctx, 1)
	if !d.ShouldRun(ctx, 1) {
		t.Error("pass after reset should run")
	}
}
