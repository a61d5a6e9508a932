package server

import (
	"sync"
	"time"
)

const (
	sessionIdleTimeout = 30 * time.Minute
	sessionScanPeriod  = 10 * time.Minute
)

// Session carries the resolved project scope across tool calls on one MCP
// connection. The first memory-bank init populates Root.
type Session struct {
	ID           string
	Root         string
	Repository   string
	Branch       string
	CreatedAt    time.Time
	LastActivity time.Time
}

// SessionStats summarizes the registry for observability.
type SessionStats struct {
	Count           int           `json:"count"`
	Oldest          time.Time     `json:"oldest,omitempty"`
	AverageDuration time.Duration `json:"average_duration"`
}

// SessionRegistry tracks live sessions and the (repository, branch) to
// project-root mapping that lets later sessions find an already-initialized
// bank without repeating the root argument.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	roots    map[string]string // "repo:branch" -> clientProjectRoot
	now      func() time.Time
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		roots:    make(map[string]string),
		now:      time.Now,
	}
}

// Touch returns the session for id, creating it on first sight, and bumps
// its activity clock.
func (r *SessionRegistry) Touch(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		now := r.now()
		s = &Session{ID: id, CreatedAt: now}
		r.sessions[id] = s
	}
	s.LastActivity = r.now()
	return s
}

// Bind records the session's resolved scope and the (repo, branch) root
// mapping.
func (r *SessionRegistry) Bind(id, root, repo, branch string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.Root = root
		s.Repository = repo
		s.Branch = branch
	}
	if root != "" {
		r.roots[repo+":"+branch] = root
	}
}

// RootFor resolves a project root: the session's own, then the (repo,
// branch) registry. Empty means unresolved.
func (r *SessionRegistry) RootFor(id, repo, branch string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok && s.Root != "" {
		return s.Root
	}
	return r.roots[repo+":"+branch]
}

// Drop removes a session, as on transport close.
func (r *SessionRegistry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Stats reports the current registry shape.
func (r *SessionRegistry) Stats() SessionStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := SessionStats{Count: len(r.sessions)}
	if stats.Count == 0 {
		return stats
	}
	now := r.now()
	var total time.Duration
	for _, s := range r.sessions {
		if stats.Oldest.IsZero() || s.CreatedAt.Before(stats.Oldest) {
			stats.Oldest = s.CreatedAt
		}
		total += now.Sub(s.CreatedAt)
	}
	stats.AverageDuration = total / time.Duration(stats.Count)
	return stats
}

// evictIdle drops sessions idle longer than the timeout; returns the ids
// removed.
func (r *SessionRegistry) evictIdle(timeout time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-timeout)
	var dropped []string
	for id, s := range r.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(r.sessions, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}
