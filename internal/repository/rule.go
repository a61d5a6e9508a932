package repository

import (
	"context"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Rules accesses Rule nodes.
type Rules struct {
	h store
}

// NewRules returns an accessor bound to the handle.
func NewRules(h *database.Handle) *Rules {
	return &Rules{h: handleStore{h}}
}

// Find returns one rule by logical ID, or nil when absent.
func (r *Rules) Find(ctx context.Context, repo, branch, id string) (*types.Rule, error) {
	rows, err := r.h.ExecuteQuery(ctx,
		`MATCH (rule:Rule {id: $gid}) RETURN rule`,
		map[string]any{"gid": types.GraphID(repo, branch, id)})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return ruleFromValue(rows[0]["rule"]), nil
}

// Upsert merges the rule and its PART_OF edge, then re-reads it.
func (r *Rules) Upsert(ctx context.Context, repo, branch string, rule *types.Rule) (*types.Rule, error) {
	if err := rule.Validate(); err != nil {
		return nil, types.NewError(types.CodeInvalidArgs, "%s", err)
	}
	created := rule.Created
	if created == "" {
		created = time.Now().UTC().Format("2006-01-02")
	}
	parsedCreated, err := time.Parse("2006-01-02", created)
	if err != nil {
		return nil, types.NewError(types.CodeInvalidArgs, "rule created date must be YYYY-MM-DD: %q", created)
	}
	status := rule.Status
	if status == "" {
		status = "active"
	}
	gid := types.GraphID(repo, branch, rule.ID)
	repoNodeID := types.RepositoryNodeID(repo, branch)
	now := time.Now().UTC()

	err = r.h.Transaction(ctx, func(tx executor) error {
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (rep:Repository {id: $rid})
			ON CREATE SET rep.name = $repo, rep.branch = $branch, rep.created_at = $now, rep.updated_at = $now
			ON MATCH SET rep.updated_at = $now`,
			map[string]any{"rid": repoNodeID, "repo": repo, "branch": branch, "now": now}); err != nil {
			return err
		}
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (rule:Rule {id: $gid})
			ON CREATE SET rule.name = $name, rule.created = $created, rule.triggers = $triggers,
				rule.content = $content, rule.status = $status,
				rule.created_at = $now, rule.updated_at = $now
			ON MATCH SET rule.name = $name, rule.created = $created, rule.triggers = $triggers,
				rule.content = $content, rule.status = $status, rule.updated_at = $now`,
			map[string]any{
				"gid": gid, "name": rule.Name, "created": parsedCreated,
				"triggers": stringList(rule.Triggers), "content": rule.Content,
				"status": status, "now": now,
			}); err != nil {
			return err
		}
		return mergePartOf(ctx, tx, "Rule", gid, repoNodeID)
	})
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, repo, branch, rule.ID)
}

// ListActive returns rules with status "active" in (repo, branch).
func (r *Rules) ListActive(ctx context.Context, repo, branch string) ([]*types.Rule, error) {
	rows, err := r.h.ExecuteQuery(ctx, `
		MATCH (rule:Rule)-[:PART_OF]->(rep:Repository {id: $rid})
		WHERE rule.status = 'active'
		RETURN rule ORDER BY rule.name`,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch)})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Rule, 0, len(rows))
	for _, row := range rows {
		if rule := ruleFromValue(row["rule"]); rule != nil {
			out = append(out, rule)
		}
	}
	return out, nil
}

// List returns every rule in (repo, branch).
func (r *Rules) List(ctx context.Context, repo, branch string) ([]*types.Rule, error) {
	rows, err := r.h.ExecuteQuery(ctx, `
		MATCH (rule:Rule)-[:PART_OF]->(rep:Repository {id: $rid})
		RETURN rule ORDER BY rule.name`,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch)})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Rule, 0, len(rows))
	for _, row := range rows {
		if rule := ruleFromValue(row["rule"]); rule != nil {
			out = append(out, rule)
		}
	}
	return out, nil
}

// Governs records that a rule governs a component.
func (r *Rules) Governs(ctx context.Context, repo, branch, ruleID, componentID string) error {
	_, err := r.h.ExecuteQuery(ctx, `
		MATCH (rule:Rule {id: $rgid}), (comp:Component {id: $cgid})
		MERGE (rule)-[:GOVERNS]->(comp)`,
		map[string]any{
			"rgid": types.GraphID(repo, branch, ruleID),
			"cgid": types.GraphID(repo, branch, componentID),
		})
	return err
}
