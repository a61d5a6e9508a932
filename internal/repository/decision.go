package repository

import (
	"context"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Decisions accesses Decision nodes.
type Decisions struct {
	h store
}

// NewDecisions returns an accessor bound to the handle.
func NewDecisions(h *database.Handle) *Decisions {
	return &Decisions{h: handleStore{h}}
}

// Find returns one decision by logical ID, or nil when absent.
func (d *Decisions) Find(ctx context.Context, repo, branch, id string) (*types.Decision, error) {
	rows, err := d.h.ExecuteQuery(ctx,
		`MATCH (dec:Decision {id: $gid}) RETURN dec`,
		map[string]any{"gid": types.GraphID(repo, branch, id)})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return decisionFromValue(rows[0]["dec"]), nil
}

// Upsert merges the decision and its PART_OF edge, then re-reads it.
func (d *Decisions) Upsert(ctx context.Context, repo, branch string, dec *types.Decision) (*types.Decision, error) {
	if err := dec.Validate(); err != nil {
		return nil, types.NewError(types.CodeInvalidArgs, "%s", err)
	}
	date := dec.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	parsedDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, types.NewError(types.CodeInvalidArgs, "decision date must be YYYY-MM-DD: %q", date)
	}
	gid := types.GraphID(repo, branch, dec.ID)
	repoNodeID := types.RepositoryNodeID(repo, branch)
	now := time.Now().UTC()

	err = d.h.Transaction(ctx, func(tx executor) error {
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (r:Repository {id: $rid})
			ON CREATE SET r.name = $repo, r.branch = $branch, r.created_at = $now, r.updated_at = $now
			ON MATCH SET r.updated_at = $now`,
			map[string]any{"rid": repoNodeID, "repo": repo, "branch": branch, "now": now}); err != nil {
			return err
		}
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (dec:Decision {id: $gid})
			ON CREATE SET dec.name = $name, dec.context = $context, dec.date = $date,
				dec.created_at = $now, dec.updated_at = $now
			ON MATCH SET dec.name = $name, dec.context = $context, dec.date = $date,
				dec.updated_at = $now`,
			map[string]any{"gid": gid, "name": dec.Name, "context": dec.Context, "date": parsedDate, "now": now}); err != nil {
			return err
		}
		return mergePartOf(ctx, tx, "Decision", gid, repoNodeID)
	})
	if err != nil {
		return nil, err
	}
	return d.Find(ctx, repo, branch, dec.ID)
}

// ListByDateRange returns decisions whose date falls inside [start, end],
// both YYYY-MM-DD inclusive, newest first. Empty bounds are open.
func (d *Decisions) ListByDateRange(ctx context.Context, repo, branch, start, end string) ([]*types.Decision, error) {
	params := map[string]any{"rid": types.RepositoryNodeID(repo, branch)}
	q := `MATCH (dec:Decision)-[:PART_OF]->(r:Repository {id: $rid})`
	var where []string
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return nil, types.NewError(types.CodeInvalidArgs, "start date must be YYYY-MM-DD: %q", start)
		}
		params["start"] = t
		where = append(where, "dec.date >= $start")
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return nil, types.NewError(types.CodeInvalidArgs, "end date must be YYYY-MM-DD: %q", end)
		}
		params["end"] = t
		where = append(where, "dec.date <= $end")
	}
	for i, cond := range where {
		if i == 0 {
			q += " WHERE " + cond
		} else {
			q += " AND " + cond
		}
	}
	q += " RETURN dec ORDER BY dec.date DESC"

	rows, err := d.h.ExecuteQuery(ctx, q, params)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Decision, 0, len(rows))
	for _, row := range rows {
		if dec := decisionFromValue(row["dec"]); dec != nil {
			out = append(out, dec)
		}
	}
	return out, nil
}

// Affects records that a decision affects a component.
func (d *Decisions) Affects(ctx context.Context, repo, branch, decisionID, componentID string) error {
	_, err := d.h.ExecuteQuery(ctx, `
		MATCH (dec:Decision {id: $dgid}), (comp:Component {id: $cgid})
		MERGE (dec)-[:AFFECTS]->(comp)`,
		map[string]any{
			"dgid": types.GraphID(repo, branch, decisionID),
			"cgid": types.GraphID(repo, branch, componentID),
		})
	return err
}
