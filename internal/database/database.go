// Package database manages per-project Kuzu database handles.
//
// A Manager maps each client project root to at most one live handle. The
// first Acquire for a root runs the full initialization protocol (directory
// probe, stale lock recovery, schema bootstrap, algo extension load); later
// calls return the cached handle after a cheap health check. Concurrent
// first-touch callers for the same root wait on a single initialization.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

const (
	// DBRelativeDir is the per-project directory holding the memory bank.
	DBRelativeDir = ".kuzumem"
	// DBFilename is the on-disk name of the Kuzu database.
	DBFilename = "memory-bank.db"

	// DefaultQueryTimeout bounds ordinary queries.
	DefaultQueryTimeout = 30 * time.Second
	// SchemaProbeTimeout bounds the show_tables probe; a hang here usually
	// means another process holds the database lock.
	SchemaProbeTimeout = 5 * time.Second
	// ValidationTimeout bounds the RETURN 1 health check.
	ValidationTimeout = 1 * time.Second

	// validationInterval is the minimum gap between health checks per handle.
	validationInterval = 5 * time.Minute
	// handleTTL is the age after which a handle is reset on next Acquire.
	handleTTL = 30 * time.Minute
	// staleLockAge is the lock-file mtime age past which the lock is
	// considered abandoned and removed.
	staleLockAge = 5 * time.Minute
)

// Options configures a Manager.
type Options struct {
	// PathOverride forces every handle to a single absolute database path,
	// bypassing per-project isolation. Test harnesses only.
	PathOverride string
	Logger       *slog.Logger
}

// Manager owns the clientProjectRoot -> handle registry.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry

	pathOverride string
	logger       *slog.Logger
}

// entry tracks one root's initialization state. A nil barrier with a non-nil
// handle means Ready; a non-nil barrier means Initializing and waiters block
// on it. Failed initializations are removed so the next caller retries.
type entry struct {
	barrier chan struct{}
	handle  *Handle
	err     error
}

// NewManager creates an empty registry.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		entries:      make(map[string]*entry),
		pathOverride: opts.PathOverride,
		logger:       logger,
	}
}

// DBPath returns the database path that Acquire would use for the given root.
func (m *Manager) DBPath(clientProjectRoot string) string {
	if m.pathOverride != "" {
		return m.pathOverride
	}
	return filepath.Join(clientProjectRoot, DBRelativeDir, DBFilename)
}

// Acquire returns a ready handle for the project root, initializing the
// database on first touch. Safe for concurrent use across roots and for the
// same root.
func (m *Manager) Acquire(ctx context.Context, clientProjectRoot string) (*Handle, error) {
	if clientProjectRoot == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "clientProjectRoot is required")
	}
	if !filepath.IsAbs(clientProjectRoot) {
		return nil, types.NewError(types.CodeInvalidArgs, "clientProjectRoot must be absolute: %q", clientProjectRoot)
	}

	for {
		m.mu.Lock()
		e, ok := m.entries[clientProjectRoot]
		if ok && e.barrier == nil {
			// Ready. Expired handles are torn down and re-initialized.
			if time.Since(e.handle.createdAt) > handleTTL {
				m.logger.Info("handle expired, reinitializing", "root", clientProjectRoot)
				h := e.handle
				delete(m.entries, clientProjectRoot)
				m.mu.Unlock()
				h.close()
				continue
			}
			h := e.handle
			m.mu.Unlock()
			if err := h.validate(ctx); err != nil {
				// Drop the broken handle; next iteration re-initializes.
				m.mu.Lock()
				if cur, ok := m.entries[clientProjectRoot]; ok && cur.handle == h {
					delete(m.entries, clientProjectRoot)
				}
				m.mu.Unlock()
				h.close()
				continue
			}
			return h, nil
		}
		if ok {
			// Another caller is initializing this root; wait for it.
			barrier := e.barrier
			m.mu.Unlock()
			select {
			case <-barrier:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			m.mu.Lock()
			e, ok := m.entries[clientProjectRoot]
			if ok && e.barrier == nil {
				h := e.handle
				m.mu.Unlock()
				return h, nil
			}
			// Initialization failed and the entry was removed; surface the
			// recorded error if we saw it, otherwise retry from scratch.
			m.mu.Unlock()
			if e != nil && e.err != nil {
				return nil, e.err
			}
			continue
		}

		// First touch: claim the slot, then initialize outside the lock.
		e = &entry{barrier: make(chan struct{})}
		m.entries[clientProjectRoot] = e
		m.mu.Unlock()

		handle, err := m.initialize(ctx, clientProjectRoot)

		m.mu.Lock()
		if err != nil {
			e.err = err
			delete(m.entries, clientProjectRoot)
		} else {
			e.handle = handle
		}
		barrier := e.barrier
		e.barrier = nil
		m.mu.Unlock()
		close(barrier)

		if err != nil {
			return nil, err
		}
		return handle, nil
	}
}

// Close releases the handle for one root and removes it from the registry.
func (m *Manager) Close(clientProjectRoot string) {
	m.mu.Lock()
	e, ok := m.entries[clientProjectRoot]
	if ok {
		delete(m.entries, clientProjectRoot)
	}
	m.mu.Unlock()
	if ok && e.handle != nil {
		e.handle.close()
	}
}

// Shutdown closes every cached handle.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.entries))
	for root, e := range m.entries {
		if e.handle != nil {
			handles = append(handles, e.handle)
		}
		delete(m.entries, root)
	}
	m.mu.Unlock()
	for _, h := range handles {
		h.close()
	}
}

// Roots returns the project roots with live handles.
func (m *Manager) Roots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	roots := make([]string, 0, len(m.entries))
	for root, e := range m.entries {
		if e.barrier == nil && e.handle != nil {
			roots = append(roots, root)
		}
	}
	return roots
}

// initialize runs the first-touch protocol for one root.
func (m *Manager) initialize(ctx context.Context, clientProjectRoot string) (*Handle, error) {
	dbPath := m.DBPath(clientProjectRoot)
	dir := filepath.Dir(dbPath)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		if os.IsPermission(err) {
			return nil, types.PathError(types.CodePermission, dir, err, "cannot create database directory")
		}
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	if err := probeWritable(dir); err != nil {
		return nil, err
	}

	// Guard schema bootstrap against other kuzumem processes racing the same
	// project. The engine's own lock protects the data files; this protects
	// the recovery/DDL window.
	unlock, err := acquireInitLock(dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	lockPath := dbPath + ".lock"
	if err := recoverStaleLock(lockPath, m.logger); err != nil {
		return nil, err
	}

	h, err := openHandle(dbPath, m.logger)
	if err != nil {
		return nil, err
	}

	if err := h.bootstrapSchema(ctx, lockPath); err != nil {
		h.close()
		return nil, err
	}
	h.loadExtensions(ctx)
	return h, nil
}
