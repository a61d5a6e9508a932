package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// probeWritable verifies the database directory accepts writes by creating
// and removing a probe file.
func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".kuzumem-probe-*")
	if err != nil {
		if os.IsPermission(err) {
			return types.PathError(types.CodePermission, dir, err, "database directory is not writable")
		}
		return fmt.Errorf("probe database directory: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove probe file: %w", err)
	}
	return nil
}

// acquireInitLock takes an advisory flock guarding the bootstrap window
// (stale-lock recovery + DDL) against other kuzumem processes. The returned
// func releases it.
func acquireInitLock(dir string) (func(), error) {
	fl := flock.New(filepath.Join(dir, ".init.lock"))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("init lock: %w", err)
	}
	if !locked {
		// Another process is bootstrapping; block until it finishes.
		if err := fl.Lock(); err != nil {
			return nil, fmt.Errorf("init lock: %w", err)
		}
	}
	return func() { _ = fl.Unlock() }, nil
}

// recoverStaleLock removes the engine's lock file when its mtime says the
// owner died more than staleLockAge ago. A younger lock is left in place;
// the engine will surface the contention to the caller.
func recoverStaleLock(lockPath string, logger *slog.Logger) error {
	info, err := os.Stat(lockPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		if os.IsPermission(err) {
			return types.PathError(types.CodePermission, lockPath, err, "cannot stat lock file")
		}
		return fmt.Errorf("stat lock file: %w", err)
	}
	age := time.Since(info.ModTime())
	if age <= staleLockAge {
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		if os.IsPermission(err) {
			return types.PathError(types.CodePermission, lockPath, err, "cannot remove stale lock file")
		}
		return fmt.Errorf("remove stale lock file: %w", err)
	}
	logger.Info("Removed stale lock file", "path", lockPath, "age", age.Round(time.Second))
	return nil
}
