package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) *FixedWindowLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	l, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "", limit, window)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return l
}

func TestAllowWithinLimit(t *testing.T) {
	l := newTestLimiter(t, 3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("user:u-1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("user:u-1") {
		t.Fatalf("request over the limit must be denied")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := newTestLimiter(t, 1, time.Minute)
	if !l.Allow("user:u-1") {
		t.Fatalf("first key should be allowed")
	}
	if !l.Allow("ip:10.0.0.9") {
		t.Fatalf("other key must have its own window")
	}
	if l.Allow("user:u-1") {
		t.Fatalf("exhausted key must stay denied")
	}
}

func TestAllowFailsClosedWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	l, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "", 5, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	mr.Close()
	if l.Allow("user:u-1") {
		t.Fatalf("expected deny when redis is unreachable")
	}
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *FixedWindowLimiter
	if !l.Allow("anything") {
		t.Fatalf("nil limiter means no limiting configured")
	}
}

func TestNewLimiterValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", "", 0, time.Minute); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if _, err := NewRedisFixedWindowLimiter("  ", "", "", 5, time.Minute); err == nil {
		t.Fatalf("expected error for blank addr")
	}
}
