package cache

import (
	"testing"
	"time"
)

func TestEntry_ExpiredAt(t *testing.T) {
	expires := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"long before", expires.Add(-time.Hour), false},
		{"just before", expires.Add(-time.Nanosecond), false},
		{"exactly at expiry", expires, true},
		{"after", expires.Add(time.Millisecond), true},
	}

	entry := &Entry{Expires: expires}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.ExpiredAt(tt.now); got != tt.want {
				t.Errorf("ExpiredAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestEntry_RemainingAt(t *testing.T) {
	cachedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := &Entry{CachedAt: cachedAt, Expires: cachedAt.Add(time.Second)}

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"at capture", cachedAt, time.Second},
		{"halfway", cachedAt.Add(400 * time.Millisecond), 600 * time.Millisecond},
		{"at expiry", cachedAt.Add(time.Second), 0},
		{"long gone", cachedAt.Add(time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.RemainingAt(tt.now); got != tt.want {
				t.Errorf("RemainingAt() = %v, want %v", got, tt.want)
			}
		})
	}
}
