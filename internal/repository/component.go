package repository

import (
	"context"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Components provides CRUD over Component nodes. Traversal and algorithm
// accessors live in component_graph.go and component_algo.go.
type Components struct {
	h store
}

// NewComponents returns an accessor bound to the handle.
func NewComponents(h *database.Handle) *Components {
	return &Components{h: handleStore{h}}
}

// GetActive returns components with status "active" in (repo, branch),
// ordered by name.
func (c *Components) GetActive(ctx context.Context, repo, branch string) ([]*types.Component, error) {
	rows, err := c.h.ExecuteQuery(ctx, `
		MATCH (comp:Component)-[:PART_OF]->(r:Repository {id: $rid})
		WHERE comp.status = 'active'
		RETURN comp ORDER BY comp.name`,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch)})
	if err != nil {
		return nil, err
	}
	return componentsFromRows(rows, "comp"), nil
}

// List returns every component in (repo, branch), ordered by name.
func (c *Components) List(ctx context.Context, repo, branch string) ([]*types.Component, error) {
	rows, err := c.h.ExecuteQuery(ctx, `
		MATCH (comp:Component)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN comp ORDER BY comp.name`,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch)})
	if err != nil {
		return nil, err
	}
	return componentsFromRows(rows, "comp"), nil
}

// FindByIDAndBranch fetches one component with its depends_on populated from
// the live edge set. A missing node returns (nil, nil).
func (c *Components) FindByIDAndBranch(ctx context.Context, repo, id, branch string) (*types.Component, error) {
	gid := types.GraphID(repo, branch, id)
	rows, err := c.h.ExecuteQuery(ctx,
		`MATCH (comp:Component {id: $gid}) RETURN comp`,
		map[string]any{"gid": gid})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	comp := componentFromValue(rows[0]["comp"])

	depRows, err := c.h.ExecuteQuery(ctx, `
		MATCH (comp:Component {id: $gid})-[:DEPENDS_ON]->(dep:Component)
		RETURN dep.id AS dep_id ORDER BY dep_id`,
		map[string]any{"gid": gid})
	if err != nil {
		return nil, err
	}
	deps := make([]string, 0, len(depRows))
	for _, row := range depRows {
		deps = append(deps, logicalID(asString(row["dep_id"])))
	}
	comp.DependsOn = deps
	return comp, nil
}

// UpdateStatus sets the component's status, bumping updated_at. Returns nil
// without error when the node is absent.
func (c *Components) UpdateStatus(ctx context.Context, repo, id, branch string, status types.ComponentStatus) (*types.Component, error) {
	if !status.IsValid() {
		return nil, types.NewError(types.CodeInvalidArgs, "invalid component status: %s", status)
	}
	_, err := c.h.ExecuteQuery(ctx, `
		MATCH (comp:Component {id: $gid})
		SET comp.status = $status, comp.updated_at = $now`,
		map[string]any{
			"gid":    types.GraphID(repo, branch, id),
			"status": string(status),
			"now":    time.Now().UTC(),
		})
	if err != nil {
		return nil, err
	}
	return c.FindByIDAndBranch(ctx, repo, id, branch)
}

// Upsert creates or updates a component and rewrites its outgoing
// DEPENDS_ON edges in a single transaction. Dependencies named in
// comp.DependsOn that do not exist yet are created as planned placeholders.
// A nil DependsOn leaves both the stored list and the edge set untouched.
// The returned component is re-read after commit.
func (c *Components) Upsert(ctx context.Context, repo, branch string, comp *types.Component) (*types.Component, error) {
	if err := comp.Validate(); err != nil {
		return nil, types.NewError(types.CodeInvalidArgs, "%s", err)
	}
	status := comp.Status
	if status == "" {
		status = types.StatusActive
	}
	repoNodeID := types.RepositoryNodeID(repo, branch)
	gid := types.GraphID(repo, branch, comp.ID)
	now := time.Now().UTC()

	// A nil DependsOn means the caller omitted the field: the stored
	// depends_on list and the edge set both stay as they are. Only a
	// non-nil slice (including an empty one) rewrites them.
	setFields := "comp.name = $name, comp.kind = $kind, comp.status = $status"
	mergeParams := map[string]any{
		"gid": gid, "name": comp.Name, "kind": comp.Kind,
		"status": string(status), "now": now,
	}
	if comp.DependsOn != nil {
		setFields += ", comp.depends_on = $deps"
		mergeParams["deps"] = stringList(comp.DependsOn)
	}

	err := c.h.Transaction(ctx, func(tx executor) error {
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (r:Repository {id: $rid})
			ON CREATE SET r.name = $repo, r.branch = $branch, r.created_at = $now, r.updated_at = $now
			ON MATCH SET r.updated_at = $now`,
			map[string]any{"rid": repoNodeID, "repo": repo, "branch": branch, "now": now}); err != nil {
			return err
		}

		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (comp:Component {id: $gid})
			ON CREATE SET `+setFields+`, comp.created_at = $now, comp.updated_at = $now
			ON MATCH SET `+setFields+`, comp.updated_at = $now`,
			mergeParams); err != nil {
			return err
		}

		if err := mergePartOf(ctx, tx, "Component", gid, repoNodeID); err != nil {
			return err
		}

		if comp.DependsOn == nil {
			return nil
		}

		// Rewrite the edge set: drop everything, then merge the new targets.
		if _, err := tx.ExecuteQuery(ctx, `
			MATCH (comp:Component {id: $gid})-[e:DEPENDS_ON]->(:Component)
			DELETE e`,
			map[string]any{"gid": gid}); err != nil {
			return err
		}
		for _, depID := range comp.DependsOn {
			depGID := types.GraphID(repo, branch, depID)
			if _, err := tx.ExecuteQuery(ctx, `
				MERGE (dep:Component {id: $dgid})
				ON CREATE SET dep.name = $dname, dep.status = 'planned',
					dep.created_at = $now, dep.updated_at = $now`,
				map[string]any{"dgid": depGID, "dname": depID, "now": now}); err != nil {
				return err
			}
			if err := mergePartOf(ctx, tx, "Component", depGID, repoNodeID); err != nil {
				return err
			}
			if _, err := tx.ExecuteQuery(ctx, `
				MATCH (comp:Component {id: $gid}), (dep:Component {id: $dgid})
				MERGE (comp)-[:DEPENDS_ON]->(dep)`,
				map[string]any{"gid": gid, "dgid": depGID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.FindByIDAndBranch(ctx, repo, comp.ID, branch)
}

func componentsFromRows(rows []database.Row, col string) []*types.Component {
	out := make([]*types.Component, 0, len(rows))
	for _, row := range rows {
		if comp := componentFromValue(row[col]); comp != nil {
			out = append(out, comp)
		}
	}
	return out
}

// stringList widens []string for parameter binding; the engine rejects nil
// where a list is expected.
func stringList(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
