package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNew_Disabled(t *testing.T) {
	tests := []struct {
		name      string
		perSecond float64
	}{
		{"zero", 0},
		{"negative", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.perSecond, 10, zerolog.Nop())
			if l.Enabled() {
				t.Error("limiter should be disabled")
			}
			if l.Limit() != 0 || l.Burst() != 0 {
				t.Errorf("Limit/Burst = %v/%d, want 0/0", l.Limit(), l.Burst())
			}
			for i := 0; i < 100; i++ {
				if err := l.Wait(context.Background()); err != nil {
					t.Fatalf("Wait() error = %v", err)
				}
			}
		})
	}
}

func TestNilLimiter(t *testing.T) {
	var l *Limiter
	if l.Enabled() {
		t.Error("nil limiter should be disabled")
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("Wait() on nil limiter error = %v", err)
	}
}

func TestNew_BurstDefaults(t *testing.T) {
	tests := []struct {
		name      string
		perSecond float64
		burst     int
		wantBurst int
	}{
		{"explicit burst", 10, 3, 3},
		{"burst from rate", 10, 0, 10},
		{"fractional rate", 0.5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.perSecond, tt.burst, zerolog.Nop())
			if !l.Enabled() {
				t.Fatal("limiter should be enabled")
			}
			if got := l.Burst(); got != tt.wantBurst {
				t.Errorf("Burst() = %d, want %d", got, tt.wantBurst)
			}
			if got := l.Limit(); got != tt.perSecond {
				t.Errorf("Limit() = %v, want %v", got, tt.perSecond)
			}
		})
	}
}

func TestWait_BurstIsImmediate(t *testing.T) {
	l := New(1, 5, zerolog.Nop())

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst took %v, want immediate", elapsed)
	}
}

func TestWait_Throttles(t *testing.T) {
	l := New(20, 1, zerolog.Nop())

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	// one immediate token, then two at 50ms intervals
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 waits at 20/s took %v, want >= ~100ms", elapsed)
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New(0.1, 1, zerolog.Nop())

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Wait() should fail when the next token is beyond the deadline")
	}
}
