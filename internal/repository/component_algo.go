package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// projectionName is the process-wide projected graph every algorithm runs
// against: Component nodes joined by DEPENDS_ON edges.
const projectionName = "AllComponentsAndDependencies"

// RankedComponent is a component annotated with an algorithm score.
type RankedComponent struct {
	Component *types.Component `json:"component"`
	Score     float64          `json:"score"`
}

// GroupedComponent is a component annotated with a community or group ID.
type GroupedComponent struct {
	Component *types.Component `json:"component"`
	GroupID   int64            `json:"group_id"`
}

// ensureProjection creates the projected graph if show_graphs does not list
// it. Creation is idempotent and cheap; the membership probe keeps
// concurrent creators from erroring on a duplicate CREATE.
func (c *Components) ensureProjection(ctx context.Context) error {
	rows, err := c.h.ExecuteQuery(ctx, "CALL show_graphs() RETURN name;", nil)
	if err != nil {
		return fmt.Errorf("list projected graphs: %w", err)
	}
	for _, row := range rows {
		if asString(row["name"]) == projectionName {
			return nil
		}
	}
	q := fmt.Sprintf(`CALL project_graph('%s', ['Component'], ['DEPENDS_ON']);`, projectionName)
	if _, err := c.h.ExecuteQuery(ctx, q, nil); err != nil {
		// A concurrent creator may have won the race.
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("create projected graph: %w", err)
	}
	return nil
}

// KCore returns the components whose k-core degree is at least k, with the
// degree as the score.
func (c *Components) KCore(ctx context.Context, repo, branch string, k int) ([]*RankedComponent, error) {
	if err := c.ensureProjection(ctx); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
		CALL k_core_decomposition('%s')
		WITH node, k_degree
		MATCH (node)-[:PART_OF]->(r:Repository {id: $rid})
		WHERE k_degree >= $k
		RETURN node, k_degree ORDER BY k_degree DESC, node.name`, projectionName)
	rows, err := c.h.ExecuteQuery(ctx, q, map[string]any{
		"rid": types.RepositoryNodeID(repo, branch),
		"k":   int64(k),
	})
	if err != nil {
		return nil, err
	}
	return rankedFromRows(rows, "k_degree"), nil
}

// Louvain returns components with their Louvain community, ordered by
// community then name.
func (c *Components) Louvain(ctx context.Context, repo, branch string) ([]*GroupedComponent, error) {
	if err := c.ensureProjection(ctx); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
		CALL louvain('%s')
		WITH node, louvain_id
		MATCH (node)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN node, louvain_id ORDER BY louvain_id, node.name`, projectionName)
	rows, err := c.h.ExecuteQuery(ctx, q,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch)})
	if err != nil {
		return nil, err
	}
	return groupedFromRows(rows, "louvain_id"), nil
}

// PageRankOptions are the tunables of the PageRank call; nil fields use the
// engine defaults.
type PageRankOptions struct {
	DampingFactor    *float64
	MaxIterations    *int
	Tolerance        *float64
	NormalizeInitial *bool
}

// PageRank returns components ordered by rank, highest first.
func (c *Components) PageRank(ctx context.Context, repo, branch string, opts *PageRankOptions) ([]*RankedComponent, error) {
	if err := c.ensureProjection(ctx); err != nil {
		return nil, err
	}
	// Algorithm tunables cannot be bound as parameters inside CALL; they are
	// numeric/bool literals formatted from typed values.
	var args []string
	if opts != nil {
		if opts.DampingFactor != nil {
			args = append(args, fmt.Sprintf("dampingFactor := %g", *opts.DampingFactor))
		}
		if opts.MaxIterations != nil {
			args = append(args, fmt.Sprintf("maxIterations := %d", *opts.MaxIterations))
		}
		if opts.Tolerance != nil {
			args = append(args, fmt.Sprintf("tolerance := %g", *opts.Tolerance))
		}
		if opts.NormalizeInitial != nil {
			args = append(args, fmt.Sprintf("normalizeInitial := %t", *opts.NormalizeInitial))
		}
	}
	callArgs := ""
	if len(args) > 0 {
		callArgs = ", " + strings.Join(args, ", ")
	}
	q := fmt.Sprintf(`
		CALL page_rank('%s'%s)
		WITH node, rank
		MATCH (node)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN node, rank ORDER BY rank DESC, node.name`, projectionName, callArgs)
	rows, err := c.h.ExecuteQuery(ctx, q,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch)})
	if err != nil {
		return nil, err
	}
	return rankedFromRows(rows, "rank"), nil
}

// StronglyConnectedComponents returns components with their SCC group.
func (c *Components) StronglyConnectedComponents(ctx context.Context, repo, branch string) ([]*GroupedComponent, error) {
	return c.connectedComponents(ctx, repo, branch, "strongly_connected_components")
}

// WeaklyConnectedComponents returns components with their WCC group.
func (c *Components) WeaklyConnectedComponents(ctx context.Context, repo, branch string) ([]*GroupedComponent, error) {
	return c.connectedComponents(ctx, repo, branch, "weakly_connected_components")
}

func (c *Components) connectedComponents(ctx context.Context, repo, branch, fn string) ([]*GroupedComponent, error) {
	if err := c.ensureProjection(ctx); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
		CALL %s('%s')
		WITH node, group_id
		MATCH (node)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN node, group_id ORDER BY group_id, node.name`, fn, projectionName)
	rows, err := c.h.ExecuteQuery(ctx, q,
		map[string]any{"rid": types.RepositoryNodeID(repo, branch)})
	if err != nil {
		return nil, err
	}
	return groupedFromRows(rows, "group_id"), nil
}

// DetectCycles reports SCC groups with more than one member as dependency
// cycles, each cycle listed as its member components.
func (c *Components) DetectCycles(ctx context.Context, repo, branch string) ([][]*types.Component, error) {
	grouped, err := c.StronglyConnectedComponents(ctx, repo, branch)
	if err != nil {
		return nil, err
	}
	byGroup := make(map[int64][]*types.Component)
	order := make([]int64, 0)
	for _, g := range grouped {
		if _, seen := byGroup[g.GroupID]; !seen {
			order = append(order, g.GroupID)
		}
		byGroup[g.GroupID] = append(byGroup[g.GroupID], g.Component)
	}
	var cycles [][]*types.Component
	for _, id := range order {
		if members := byGroup[id]; len(members) > 1 {
			cycles = append(cycles, members)
		}
	}
	return cycles, nil
}

func rankedFromRows(rows []database.Row, scoreCol string) []*RankedComponent {
	out := make([]*RankedComponent, 0, len(rows))
	for _, row := range rows {
		comp := componentFromValue(row["node"])
		if comp == nil {
			continue
		}
		out = append(out, &RankedComponent{Component: comp, Score: asFloat64(row[scoreCol])})
	}
	return out
}

func groupedFromRows(rows []database.Row, groupCol string) []*GroupedComponent {
	out := make([]*GroupedComponent, 0, len(rows))
	for _, row := range rows {
		comp := componentFromValue(row["node"])
		if comp == nil {
			continue
		}
		out = append(out, &GroupedComponent{Component: comp, GroupID: asInt64(row[groupCol])})
	}
	return out
}
