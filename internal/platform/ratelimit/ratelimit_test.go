package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(ceiling int) (*Limiter, *time.Time) {
	l := New(time.Minute, ceiling)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestAllow_UnderCeiling(t *testing.T) {
	l, _ := newTestLimiter(20)
	for i := 0; i < 20; i++ {
		if !l.Allow("user-a") {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}
}

func TestAllow_CeilingRejected(t *testing.T) {
	l, _ := newTestLimiter(20)
	for i := 0; i < 20; i++ {
		l.Allow("user-a")
	}
	if l.Allow("user-a") {
		t.Fatal("21st request inside the window should be rejected")
	}
}

func TestAllow_WindowElapses(t *testing.T) {
	l, current := newTestLimiter(20)
	for i := 0; i < 20; i++ {
		l.Allow("user-a")
	}
	if l.Allow("user-a") {
		t.Fatal("expected rejection at the ceiling")
	}

	*current = current.Add(61 * time.Second)
	if !l.Allow("user-a") {
		t.Fatal("first request after the window elapsed should be admitted")
	}
}

func TestAllow_RejectionNotRecorded(t *testing.T) {
	l, current := newTestLimiter(2)
	l.Allow("user-a")
	*current = current.Add(30 * time.Second)
	l.Allow("user-a")

	// Rejected attempts must not extend the penalty.
	if l.Allow("user-a") {
		t.Fatal("expected rejection at the ceiling")
	}

	// The first hit leaves the window: one slot frees up.
	*current = current.Add(31 * time.Second)
	if !l.Allow("user-a") {
		t.Fatal("expected admission once the oldest hit expired")
	}
}

func TestAllow_PerIdentityIsolation(t *testing.T) {
	l, _ := newTestLimiter(2)
	l.Allow("user-a")
	l.Allow("user-a")
	if l.Allow("user-a") {
		t.Fatal("user-a should be at the ceiling")
	}
	if !l.Allow("user-b") {
		t.Fatal("user-b should be unaffected by user-a's traffic")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := New(time.Minute, 50)

	var wg sync.WaitGroup
	admitted := make(chan struct{}, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("user-a") {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	n := 0
	for range admitted {
		n++
	}
	if n != 50 {
		t.Fatalf("expected exactly 50 admissions, got %d", n)
	}
}

func TestPrune_DropsIdleIdentities(t *testing.T) {
	l, current := newTestLimiter(20)
	l.Allow("user-a")
	l.Allow("user-b")

	*current = current.Add(2 * time.Minute)
	l.Allow("user-b")
	l.Prune()

	l.mu.Lock()
	_, hasA := l.hits["user-a"]
	_, hasB := l.hits["user-b"]
	l.mu.Unlock()

	if hasA {
		t.Fatal("expected idle user-a to be pruned")
	}
	if !hasB {
		t.Fatal("expected active user-b to survive pruning")
	}
}
