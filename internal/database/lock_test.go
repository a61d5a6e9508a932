package database

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProbeWritable(t *testing.T) {
	dir := t.TempDir()
	if err := probeWritable(dir); err != nil {
		t.Fatalf("writable dir rejected: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}
}

func TestAcquireInitLockReleases(t *testing.T) {
	dir := t.TempDir()
	unlock, err := acquireInitLock(dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	unlock()
	// Re-acquirable after release.
	unlock2, err := acquireInitLock(dir)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	unlock2()
}

func TestRecoverStaleLockRemovesOldLock(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "memory-bank.db.lock")
	if err := os.WriteFile(lockPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * staleLockAge)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatal(err)
	}

	if err := recoverStaleLock(lockPath, discardLogger()); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("stale lock not removed")
	}
}

func TestRecoverStaleLockKeepsFreshLock(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "memory-bank.db.lock")
	if err := os.WriteFile(lockPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := recoverStaleLock(lockPath, discardLogger()); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Error("fresh lock removed")
	}
}

func TestRecoverStaleLockMissingFile(t *testing.T) {
	if err := recoverStaleLock(filepath.Join(t.TempDir(), "absent.lock"), discardLogger()); err != nil {
		t.Errorf("missing lock file should be a no-op, got %v", err)
	}
}

func TestDBPath(t *testing.T) {
	m := NewManager(Options{Logger: discardLogger()})
	got := m.DBPath("/work/app")
	want := filepath.Join("/work/app", DBRelativeDir, DBFilename)
	if got != want {
		t.Errorf("DBPath = %q, want %q", got, want)
	}

	m = NewManager(Options{PathOverride: "/tmp/shared.db", Logger: discardLogger()})
	if got := m.DBPath("/work/app"); got != "/tmp/shared.db" {
		t.Errorf("override ignored: %q", got)
	}
}

func TestAcquireRejectsBadRoots(t *testing.T) {
	m := NewManager(Options{Logger: discardLogger()})
	if _, err := m.Acquire(t.Context(), ""); err == nil {
		t.Error("empty root accepted")
	}
	if _, err := m.Acquire(t.Context(), "relative/root"); err == nil {
		t.Error("relative root accepted")
	}
}
