package repository

import (
	"context"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Contexts accesses daily Context entries.
type Contexts struct {
	h store
}

// NewContexts returns an accessor bound to the handle.
func NewContexts(h *database.Handle) *Contexts {
	return &Contexts{h: handleStore{h}}
}

// TodayID returns the conventional logical ID for a date.
func TodayID(t time.Time) string {
	return "context-" + t.UTC().Format("2006-01-02")
}

// Find returns one context by logical ID, or nil when absent.
func (c *Contexts) Find(ctx context.Context, repo, branch, id string) (*types.Context, error) {
	rows, err := c.h.ExecuteQuery(ctx,
		`MATCH (cx:Context {id: $gid}) RETURN cx`,
		map[string]any{"gid": types.GraphID(repo, branch, id)})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return contextFromValue(rows[0]["cx"]), nil
}

// Latest returns the newest contexts for (repo, branch), capped by limit
// (default 10).
func (c *Contexts) Latest(ctx context.Context, repo, branch string, limit int) ([]*types.Context, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := c.h.ExecuteQuery(ctx, `
		MATCH (cx:Context)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN cx ORDER BY cx.created_at DESC LIMIT $limit`,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch), "limit": int64(limit)})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Context, 0, len(rows))
	for _, row := range rows {
		if cx := contextFromValue(row["cx"]); cx != nil {
			out = append(out, cx)
		}
	}
	return out, nil
}

// List returns every context entry for (repo, branch), newest first.
func (c *Contexts) List(ctx context.Context, repo, branch string) ([]*types.Context, error) {
	rows, err := c.h.ExecuteQuery(ctx, `
		MATCH (cx:Context)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN cx ORDER BY cx.created_at DESC`,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch)})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Context, 0, len(rows))
	for _, row := range rows {
		if cx := contextFromValue(row["cx"]); cx != nil {
			out = append(out, cx)
		}
	}
	return out, nil
}

// Update merges today's context entry, appending incoming decisions and
// observations to the stored arrays and replacing scalar fields that are
// set. A missing node is created.
func (c *Contexts) Update(ctx context.Context, repo, branch string, in *types.Context) (*types.Context, error) {
	id := in.ID
	if id == "" {
		id = TodayID(time.Now())
	}
	existing, err := c.Find(ctx, repo, branch, id)
	if err != nil {
		return nil, err
	}

	merged := &types.Context{
		ID:           id,
		Name:         in.Name,
		ISODate:      in.ISODate,
		Agent:        in.Agent,
		Summary:      in.Summary,
		RelatedIssue: in.RelatedIssue,
		Decisions:    in.Decisions,
		Observations: in.Observations,
	}
	if merged.ISODate == "" {
		merged.ISODate = time.Now().UTC().Format("2006-01-02")
	}
	if existing != nil {
		if merged.Name == "" {
			merged.Name = existing.Name
		}
		if merged.Agent == "" {
			merged.Agent = existing.Agent
		}
		if merged.Summary == "" {
			merged.Summary = existing.Summary
		}
		if merged.RelatedIssue == "" {
			merged.RelatedIssue = existing.RelatedIssue
		}
		merged.Decisions = appendUnique(existing.Decisions, in.Decisions)
		merged.Observations = appendUnique(existing.Observations, in.Observations)
	}

	gid := types.GraphID(repo, branch, id)
	repoNodeID := types.RepositoryNodeID(repo, branch)
	now := time.Now().UTC()
	isoDate, dateErr := time.Parse("2006-01-02", merged.ISODate)
	if dateErr != nil {
		return nil, types.NewError(types.CodeInvalidArgs, "iso_date must be YYYY-MM-DD: %q", merged.ISODate)
	}

	err = c.h.Transaction(ctx, func(tx executor) error {
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (r:Repository {id: $rid})
			ON CREATE SET r.name = $repo, r.branch = $branch, r.created_at = $now, r.updated_at = $now
			ON MATCH SET r.updated_at = $now`,
			map[string]any{"rid": repoNodeID, "repo": repo, "branch": branch, "now": now}); err != nil {
			return err
		}
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (cx:Context {id: $gid})
			ON CREATE SET cx.name = $name, cx.iso_date = $date, cx.agent = $agent,
				cx.summary = $summary, cx.related_issue = $issue,
				cx.decisions = $decisions, cx.observations = $observations,
				cx.created_at = $now, cx.updated_at = $now
			ON MATCH SET cx.name = $name, cx.iso_date = $date, cx.agent = $agent,
				cx.summary = $summary, cx.related_issue = $issue,
				cx.decisions = $decisions, cx.observations = $observations,
				cx.updated_at = $now`,
			map[string]any{
				"gid": gid, "name": merged.Name, "date": isoDate,
				"agent": merged.Agent, "summary": merged.Summary, "issue": merged.RelatedIssue,
				"decisions":    stringList(merged.Decisions),
				"observations": stringList(merged.Observations),
				"now":          now,
			}); err != nil {
			return err
		}
		return mergePartOf(ctx, tx, "Context", gid, repoNodeID)
	})
	if err != nil {
		return nil, err
	}
	return c.Find(ctx, repo, branch, id)
}

// Attach creates a CONTEXT_OF edge from a context to a component, decision,
// or rule.
func (c *Contexts) Attach(ctx context.Context, repo, branch, contextID, itemType, itemID string) error {
	label := entityLabel(itemType)
	switch label {
	case "Component", "Decision", "Rule":
	default:
		return types.NewError(types.CodeInvalidArgs, "contexts attach to components, decisions or rules (got %q)", itemType)
	}
	q := `MATCH (cx:Context {id: $cgid}), (item:` + label + ` {id: $igid}) MERGE (cx)-[:CONTEXT_OF]->(item)`
	_, err := c.h.ExecuteQuery(ctx, q, map[string]any{
		"cgid": types.GraphID(repo, branch, contextID),
		"igid": types.GraphID(repo, branch, itemID),
	})
	return err
}

func appendUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := append([]string{}, base...)
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
