package server

import (
	"testing"
	"time"
)

func newTestRegistry(start time.Time) (*SessionRegistry, *time.Time) {
	clock := start
	r := NewSessionRegistry()
	r.now = func() time.Time { return clock }
	return r, &clock
}

func TestTouchCreatesAndBumps(t *testing.T) {
	r, clock := newTestRegistry(time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC))
	s := r.Touch("s1")
	if s.ID != "s1" || !s.CreatedAt.Equal(*clock) {
		t.Fatalf("unexpected session: %+v", s)
	}
	*clock = clock.Add(5 * time.Minute)
	again := r.Touch("s1")
	if again != s {
		t.Error("Touch created a second session for the same id")
	}
	if !again.LastActivity.Equal(*clock) {
		t.Errorf("LastActivity not bumped: %v", again.LastActivity)
	}
}

func TestBindAndRootFor(t *testing.T) {
	r, _ := newTestRegistry(time.Now())
	r.Touch("s1")
	r.Bind("s1", "/work/app", "app", "main")

	if got := r.RootFor("s1", "app", "main"); got != "/work/app" {
		t.Errorf("own session root: got %q", got)
	}
	// A different session finds the root via the (repo, branch) mapping.
	r.Touch("s2")
	if got := r.RootFor("s2", "app", "main"); got != "/work/app" {
		t.Errorf("registry fallback: got %q", got)
	}
	if got := r.RootFor("s2", "app", "feature/x"); got != "" {
		t.Errorf("unknown branch should be unresolved, got %q", got)
	}
}

func TestEvictIdle(t *testing.T) {
	r, clock := newTestRegistry(time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC))
	r.Touch("old")
	*clock = clock.Add(40 * time.Minute)
	r.Touch("fresh")

	dropped := r.evictIdle(sessionIdleTimeout)
	if len(dropped) != 1 || dropped[0] != "old" {
		t.Fatalf("dropped = %v, want [old]", dropped)
	}
	if r.Stats().Count != 1 {
		t.Errorf("count after eviction = %d", r.Stats().Count)
	}
}

func TestStats(t *testing.T) {
	r, clock := newTestRegistry(time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC))
	first := *clock
	r.Touch("s1")
	*clock = clock.Add(10 * time.Minute)
	r.Touch("s2")
	*clock = clock.Add(10 * time.Minute)

	stats := r.Stats()
	if stats.Count != 2 {
		t.Fatalf("count = %d", stats.Count)
	}
	if !stats.Oldest.Equal(first) {
		t.Errorf("oldest = %v, want %v", stats.Oldest, first)
	}
	if stats.AverageDuration != 15*time.Minute {
		t.Errorf("average = %v, want 15m", stats.AverageDuration)
	}
}

func TestDrop(t *testing.T) {
	r, _ := newTestRegistry(time.Now())
	r.Touch("s1")
	r.Drop("s1")
	if r.Stats().Count != 0 {
		t.Error("session survived Drop")
	}
}
