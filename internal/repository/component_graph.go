package repository

import (
	"context"
	"fmt"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

const (
	defaultMaxHops = 10
	historyLimit   = 100
)

// PathOptions tune shortest-path queries.
type PathOptions struct {
	RelTypes  []string  // relationship filter; defaults to DEPENDS_ON
	Direction Direction // defaults to OUTGOING
	MaxHops   int       // defaults to 10, clamped to [1, 10]
}

// Path is a shortest-path result. Length is the hop count; an empty Path
// with Length 0 means no route exists.
type Path struct {
	Path   []*types.Component `json:"path"`
	Length int                `json:"length"`
}

// FindShortestPath returns the shortest route between two components. No
// route is not an error.
func (c *Components) FindShortestPath(ctx context.Context, repo, startID, endID, branch string, opts *PathOptions) (*Path, error) {
	if opts == nil {
		opts = &PathOptions{}
	}
	rels := relTypeFilter(opts.RelTypes, "DEPENDS_ON")
	if rels == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "no valid relationship types after sanitization")
	}
	hops := clampDepth(opts.MaxHops)
	dir := opts.Direction
	if dir == "" {
		dir = DirectionOutgoing
	}
	left, right := dir.arrows()

	q := fmt.Sprintf(`
		MATCH p = (a:Component {id: $start})%s[:%s* SHORTEST 1..%d]%s(b:Component {id: $end})
		RETURN nodes(p) AS path_nodes
		LIMIT 1`, left, rels, hops, right)
	rows, err := c.h.ExecuteQuery(ctx, q, map[string]any{
		"start": types.GraphID(repo, branch, startID),
		"end":   types.GraphID(repo, branch, endID),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Path{Path: []*types.Component{}, Length: 0}, nil
	}

	nodes := pathNodes(rows[0]["path_nodes"])
	if len(nodes) == 0 {
		return &Path{Path: []*types.Component{}, Length: 0}, nil
	}
	return &Path{Path: nodes, Length: len(nodes) - 1}, nil
}

// GetDependencies returns the one-hop DEPENDS_ON targets, branch-scoped and
// de-duplicated.
func (c *Components) GetDependencies(ctx context.Context, repo, id, branch string) ([]*types.Component, error) {
	rows, err := c.h.ExecuteQuery(ctx, `
		MATCH (comp:Component {id: $gid})-[:DEPENDS_ON]->(dep:Component)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN DISTINCT dep ORDER BY dep.name`,
		map[string]any{
			"gid": types.GraphID(repo, branch, id),
			"rid": types.RepositoryNodeID(repo, branch),
		})
	if err != nil {
		return nil, err
	}
	return componentsFromRows(rows, "dep"), nil
}

// GetDependents returns the one-hop DEPENDS_ON sources, branch-scoped and
// de-duplicated.
func (c *Components) GetDependents(ctx context.Context, repo, id, branch string) ([]*types.Component, error) {
	rows, err := c.h.ExecuteQuery(ctx, `
		MATCH (src:Component)-[:DEPENDS_ON]->(comp:Component {id: $gid}),
		      (src)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN DISTINCT src ORDER BY src.name`,
		map[string]any{
			"gid": types.GraphID(repo, branch, id),
			"rid": types.RepositoryNodeID(repo, branch),
		})
	if err != nil {
		return nil, err
	}
	return componentsFromRows(rows, "src"), nil
}

// GetRelated walks variable-length paths from the component and returns the
// distinct components reached. Depth is clamped to [1, 10].
func (c *Components) GetRelated(ctx context.Context, repo, id, branch string, relTypes []string, depth int, dir Direction) ([]*types.Component, error) {
	rels := relTypeFilter(relTypes, "DEPENDS_ON")
	if rels == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "no valid relationship types after sanitization")
	}
	if dir == "" {
		dir = DirectionBoth
	}
	left, right := dir.arrows()

	q := fmt.Sprintf(`
		MATCH (comp:Component {id: $gid})%s[:%s*1..%d]%s(other:Component),
		      (other)-[:PART_OF]->(r:Repository {id: $rid})
		WHERE other.id <> comp.id
		RETURN DISTINCT other ORDER BY other.name`,
		left, rels, clampDepth(depth), right)
	rows, err := c.h.ExecuteQuery(ctx, q, map[string]any{
		"gid": types.GraphID(repo, branch, id),
		"rid": types.RepositoryNodeID(repo, branch),
	})
	if err != nil {
		return nil, err
	}
	return componentsFromRows(rows, "other"), nil
}

// GetItemContextualHistory returns the contexts attached to a component,
// decision, or rule, newest first, capped at 100.
func (c *Components) GetItemContextualHistory(ctx context.Context, repo, id, branch, itemType string) ([]*types.Context, error) {
	label := entityLabel(itemType)
	switch label {
	case "Component", "Decision", "Rule":
	default:
		return nil, types.NewError(types.CodeInvalidArgs, "contextual history requires component, decision or rule (got %q)", itemType)
	}
	q := fmt.Sprintf(`
		MATCH (cx:Context)-[:CONTEXT_OF]->(item:%s {id: $gid}),
		      (cx)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN cx ORDER BY cx.created_at DESC LIMIT %d`, label, historyLimit)
	rows, err := c.h.ExecuteQuery(ctx, q, map[string]any{
		"gid": types.GraphID(repo, branch, id),
		"rid": types.RepositoryNodeID(repo, branch),
	})
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

// GetGoverningDecisions returns decisions with an AFFECTS edge into the
// component, newest decision date first.
func (c *Components) GetGoverningDecisions(ctx context.Context, repo, id, branch string) ([]*types.Decision, error) {
	rows, err := c.h.ExecuteQuery(ctx, `
		MATCH (d:Decision)-[:AFFECTS]->(comp:Component {id: $gid}),
		      (d)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN DISTINCT d ORDER BY d.date DESC`,
		map[string]any{
			"gid": types.GraphID(repo, branch, id),
			"rid": types.RepositoryNodeID(repo, branch),
		})
	if err != nil {
		return nil, err
	}
	out := make([]*types.Decision, 0, len(rows))
	for _, row := range rows {
		if d := decisionFromValue(row["d"]); d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

// pathNodes decodes the nodes(p) column of a path query.
func pathNodes(v any) []*types.Component {
	var raw []any
	switch nodes := v.(type) {
	case []any:
		raw = nodes
	case []kuzu.Node:
		for _, n := range nodes {
			raw = append(raw, n)
		}
	case kuzu.RecursiveRelationship:
		for _, n := range nodes.Nodes {
			raw = append(raw, n)
		}
	default:
		return nil
	}
	out := make([]*types.Component, 0, len(raw))
	for _, n := range raw {
		if comp := componentFromValue(n); comp != nil {
			out = append(out, comp)
		}
	}
	return out
}

func clampDepth(depth int) int {
	if depth < 1 {
		return defaultMaxHops
	}
	if depth > defaultMaxHops {
		return defaultMaxHops
	}
	return depth
}
