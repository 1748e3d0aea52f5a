package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_EnforcesLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("host-a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("host-a") {
		t.Error("request over the limit should be denied")
	}

	// Keys are independent.
	if !l.Allow("host-b") {
		t.Error("a different key should have its own budget")
	}
}

func TestAllow_WindowResets(t *testing.T) {
	l := New(1, 20*time.Millisecond)

	if !l.Allow("host") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("host") {
		t.Fatal("second request inside the window should be denied")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.Allow("host") {
		t.Error("request after the window expires should be allowed")
	}
}

func TestRemaining(t *testing.T) {
	l := New(2, time.Minute)

	if got := l.Remaining("host"); got != 2 {
		t.Errorf("Remaining() before any request = %d, want 2", got)
	}
	l.Allow("host")
	if got := l.Remaining("host"); got != 1 {
		t.Errorf("Remaining() after one request = %d, want 1", got)
	}
	l.Allow("host")
	l.Allow("host")
	if got := l.Remaining("host"); got != 0 {
		t.Errorf("Remaining() at the limit = %d, want 0", got)
	}
}
