package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNew_disabledWhenRateNonPositive(t *testing.T) {
	lim := New(0, 0)
	if !lim.Allow() {
		t.Fatal("disabled limiter should always allow")
	}
	if err := lim.Wait(context.Background()); err != nil {
		t.Fatalf("disabled limiter Wait: %v", err)
	}
}

func TestNew_limitsBurst(t *testing.T) {
	lim := New(1, 1)
	if !lim.Allow() {
		t.Fatal("first call should be allowed (burst=1)")
	}
	if lim.Allow() {
		t.Fatal("second immediate call should be throttled")
	}
}

func TestWait_respectsContextCancellation(t *testing.T) {
	lim := New(0.001, 1)
	lim.Allow() // consume the only token

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := lim.Wait(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}
