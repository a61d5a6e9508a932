package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/kuzumem/kuzumem-mcp/internal/telemetry"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Row is one materialized result row, keyed by column alias.
type Row = map[string]any

// Handle is one live connection to a project's database. All engine calls
// are serialized through mu: Kuzu connections are not safe for concurrent
// use, and the file lock makes the connection effectively single-threaded
// per database anyway.
type Handle struct {
	dbPath string
	db     *kuzu.Database
	conn   *kuzu.Connection
	logger *slog.Logger

	mu sync.Mutex // serializes query/prepare/execute/transaction

	createdAt       time.Time
	lastValidatedAt time.Time
	valid           bool
}

func openHandle(dbPath string, logger *slog.Logger) (*Handle, error) {
	db, err := kuzu.OpenDatabase(dbPath, kuzu.DefaultSystemConfig())
	if err != nil {
		if isLockErr(err) {
			return nil, types.PathError(types.CodeLock, dbPath+".lock", err, "database is locked by another process")
		}
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open connection: %w", err)
	}
	now := time.Now()
	return &Handle{
		dbPath:          dbPath,
		db:              db,
		conn:            conn,
		logger:          logger,
		createdAt:       now,
		lastValidatedAt: now,
		valid:           true,
	}, nil
}

// Path returns the on-disk database path.
func (h *Handle) Path() string { return h.dbPath }

func (h *Handle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.valid = false
	if h.conn != nil {
		h.conn.Close()
		h.conn = nil
	}
	if h.db != nil {
		h.db.Close()
		h.db = nil
	}
}

// ExecuteQuery runs one Cypher statement and materializes all rows. With
// params present the statement is prepared and executed; otherwise it goes
// through the direct query path. On timeout the call returns a TIMEOUT error
// but the engine call is left to finish; the handle's critical section is
// released only when it does, so no second query can interleave.
func (h *Handle) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	return h.ExecuteQueryWithTimeout(ctx, cypher, params, DefaultQueryTimeout)
}

// ExecuteQueryWithTimeout is ExecuteQuery with an explicit per-call budget.
func (h *Handle) ExecuteQueryWithTimeout(ctx context.Context, cypher string, params map[string]any, timeout time.Duration) ([]Row, error) {
	start := time.Now()
	h.mu.Lock()
	if h.conn == nil {
		h.mu.Unlock()
		return nil, types.NewError(types.CodeInternal, "handle is closed")
	}

	type outcome struct {
		rows []Row
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		// Unlock happens here, not in the caller: if the caller gave up on a
		// timeout the engine call may still be running, and releasing the
		// lock early would let a second query hit the connection.
		defer h.mu.Unlock()
		rows, err := h.runLocked(cypher, params)
		done <- outcome{rows, err}
	}()

	select {
	case out := <-done:
		telemetry.RecordQuery(ctx, time.Since(start), out.err)
		return out.rows, out.err
	case <-time.After(timeout):
		telemetry.RecordQuery(ctx, time.Since(start), context.DeadlineExceeded)
		return nil, types.NewError(types.CodeTimeout, "query exceeded %s budget", timeout)
	case <-ctx.Done():
		telemetry.RecordQuery(ctx, time.Since(start), ctx.Err())
		return nil, cancelError(ctx.Err())
	}
}

// cancelError classifies a context cancellation: a blown deadline is a
// TIMEOUT like the budget path, anything else is internal.
func cancelError(err error) *types.CoreError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &types.CoreError{Code: types.CodeTimeout, Message: "query cancelled", Err: err}
	}
	return &types.CoreError{Code: types.CodeInternal, Message: "query cancelled", Err: err}
}

// runLocked executes on the connection. Callers must hold mu.
func (h *Handle) runLocked(cypher string, params map[string]any) ([]Row, error) {
	var (
		result *kuzu.QueryResult
		err    error
	)
	if len(params) > 0 {
		var stmt *kuzu.PreparedStatement
		stmt, err = h.conn.Prepare(cypher)
		if err == nil {
			result, err = h.conn.Execute(stmt, params)
		}
	} else {
		result, err = h.conn.Query(cypher)
	}
	if err != nil {
		if isLockErr(err) {
			return nil, types.PathError(types.CodeLock, h.dbPath+".lock", err, "engine reported lock contention")
		}
		return nil, types.QueryError(cypher, err)
	}
	defer result.Close()

	var rows []Row
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, types.QueryError(cypher, err)
		}
		row, err := tuple.GetAsMap()
		if err != nil {
			return nil, types.QueryError(cypher, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Tx exposes query execution bound to an open transaction. Statements run in
// call order on the transaction's connection.
type Tx struct {
	h *Handle
}

// ExecuteQuery runs a statement inside the transaction.
func (t *Tx) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.h.runLocked(cypher, params)
}

// Transaction runs fn atomically: BEGIN, fn, then COMMIT on nil return or
// ROLLBACK on error or panic. The handle's critical section is held for the
// whole transaction. BEGIN is retried with exponential backoff when the
// engine reports transient lock contention.
func (h *Handle) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return types.NewError(types.CodeInternal, "handle is closed")
	}

	begin := func() error {
		_, err := h.runLocked("BEGIN TRANSACTION", nil)
		if err != nil && types.HasCode(err, types.CodeLock) {
			return err // retryable
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(10*time.Millisecond)), 5), ctx)
	if err := backoff.Retry(begin, policy); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if _, err := h.runLocked("ROLLBACK", nil); err != nil {
				h.logger.Warn("rollback failed", "error", err, "db", h.dbPath)
			}
		}
	}()

	if err := fn(&Tx{h: h}); err != nil {
		return err
	}
	if _, err := h.runLocked("COMMIT", nil); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// validate runs the cheap health probe, at most once per validationInterval.
func (h *Handle) validate(ctx context.Context) error {
	h.mu.Lock()
	recent := time.Since(h.lastValidatedAt) < validationInterval && h.valid
	h.mu.Unlock()
	if recent {
		return nil
	}
	_, err := h.ExecuteQueryWithTimeout(ctx, "RETURN 1 AS test;", nil, ValidationTimeout)
	h.mu.Lock()
	h.lastValidatedAt = time.Now()
	h.valid = err == nil
	h.mu.Unlock()
	if err != nil {
		return fmt.Errorf("connection validation failed: %w", err)
	}
	return nil
}

// bootstrapSchema probes for the Repository table and runs the DDL when it
// is absent. A probe timeout is treated as lock contention.
func (h *Handle) bootstrapSchema(ctx context.Context, lockPath string) error {
	rows, err := h.ExecuteQueryWithTimeout(ctx, "CALL show_tables() RETURN name;", nil, SchemaProbeTimeout)
	if err != nil {
		if types.HasCode(err, types.CodeTimeout) {
			return types.PathError(types.CodeLock, lockPath, err, "schema probe timed out; database may be locked")
		}
		return err
	}
	for _, row := range rows {
		if name, ok := row["name"].(string); ok && name == "Repository" {
			return nil
		}
	}
	h.logger.Info("bootstrapping schema", "db", h.dbPath)
	for _, stmt := range schemaStatements {
		if _, err := h.ExecuteQuery(ctx, stmt, nil); err != nil {
			return fmt.Errorf("schema bootstrap: %w", err)
		}
	}
	return nil
}

// loadExtensions installs and loads the graph-algorithm and JSON extensions.
// Failure is non-fatal: the tools that need the extension degrade, everything
// else works.
func (h *Handle) loadExtensions(ctx context.Context) {
	for _, name := range []string{"ALGO", "JSON"} {
		for _, stmt := range []string{"INSTALL " + name + ";", "LOAD " + name + ";"} {
			if _, err := h.ExecuteQuery(ctx, stmt, nil); err != nil {
				msg := err.Error()
				if strings.Contains(strings.ToLower(msg), "already") {
					continue
				}
				h.logger.Warn("extension unavailable", "stmt", stmt, "error", err)
				break
			}
		}
	}
}

// isLockErr sniffs engine messages for file-lock contention.
func isLockErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "lock") || strings.Contains(msg, "could not set lock")
}
