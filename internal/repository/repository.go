// Package repository implements the graph access layer: typed accessors for
// every entity kind and the relationships among them. Accessors receive the
// database handle explicitly; nothing in this package holds global state.
package repository

import (
	"context"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// executor is satisfied by both *database.Handle and *database.Tx so the
// same query helpers work inside and outside transactions.
type executor interface {
	ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]database.Row, error)
}

// store is what the writing accessors hold: plain execution plus atomic
// multi-statement runs. handleStore adapts *database.Handle; tests substitute
// a fake to pin the query protocol without an engine.
type store interface {
	executor
	Transaction(ctx context.Context, fn func(tx executor) error) error
}

// handleStore adapts a database handle to the store interface.
type handleStore struct {
	h *database.Handle
}

func (s handleStore) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]database.Row, error) {
	return s.h.ExecuteQuery(ctx, cypher, params)
}

func (s handleStore) Transaction(ctx context.Context, fn func(tx executor) error) error {
	return s.h.Transaction(ctx, func(tx *database.Tx) error { return fn(tx) })
}

// Repositories accesses Repository root nodes.
type Repositories struct {
	h executor
}

// NewRepositories returns an accessor bound to the handle.
func NewRepositories(h *database.Handle) *Repositories {
	return &Repositories{h: h}
}

// Ensure upserts the Repository node for (name, branch) and returns it.
func (r *Repositories) Ensure(ctx context.Context, name, branch string) (*types.Repository, error) {
	nodeID := types.RepositoryNodeID(name, branch)
	now := time.Now().UTC()
	_, err := r.h.ExecuteQuery(ctx, `
		MERGE (r:Repository {id: $id})
		ON CREATE SET r.name = $name, r.branch = $branch, r.created_at = $now, r.updated_at = $now
		ON MATCH SET r.updated_at = $now`,
		map[string]any{"id": nodeID, "name": name, "branch": branch, "now": now})
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, name, branch)
}

// Find returns the Repository node, or nil when absent.
func (r *Repositories) Find(ctx context.Context, name, branch string) (*types.Repository, error) {
	rows, err := r.h.ExecuteQuery(ctx,
		`MATCH (r:Repository {id: $id}) RETURN r`,
		map[string]any{"id": types.RepositoryNodeID(name, branch)})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return repositoryFromValue(rows[0]["r"]), nil
}

// List returns every Repository node in the database, ordered by id.
func (r *Repositories) List(ctx context.Context) ([]*types.Repository, error) {
	rows, err := r.h.ExecuteQuery(ctx, `MATCH (r:Repository) RETURN r ORDER BY r.id`, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Repository, 0, len(rows))
	for _, row := range rows {
		out = append(out, repositoryFromValue(row["r"]))
	}
	return out, nil
}

// mergePartOf connects an entity node to its Repository inside a
// transaction. Caller guarantees the labels are sanitized.
func mergePartOf(ctx context.Context, ex executor, label, nodeID, repoNodeID string) error {
	q := `MATCH (n:` + label + ` {id: $nid}), (r:Repository {id: $rid}) MERGE (n)-[:PART_OF]->(r)`
	_, err := ex.ExecuteQuery(ctx, q, map[string]any{"nid": nodeID, "rid": repoNodeID})
	return err
}
