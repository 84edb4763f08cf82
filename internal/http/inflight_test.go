package http

import (
	"context"
	"testing"
	"time"
)

// TestInFlightTracker_Counting verifies increments and decrements balance out.
func TestInFlightTracker_Counting(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()
	tracker.Increment()
	if got := tracker.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	tracker.Decrement()
	tracker.Decrement()
	if got := tracker.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

// TestInFlightTracker_WaitForZero verifies the wait returns once outstanding
// requests drain.
func TestInFlightTracker_WaitForZero(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()

	go func() {
		time.Sleep(20 * time.Millisecond)
		tracker.Decrement()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tracker.WaitForZero(ctx, 5*time.Millisecond); err != nil {
		t.Errorf("WaitForZero() error = %v, want nil", err)
	}
}

// TestInFlightTracker_WaitForZero_Timeout verifies the wait honors context
// cancellation when requests never drain.
func TestInFlightTracker_WaitForZero_Timeout(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()
	defer tracker.Decrement()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := tracker.WaitForZero(ctx, 5*time.Millisecond); err == nil {
		t.Error("WaitForZero() = nil, want context deadline error")
	}
}
