package memory

import (
	"context"

	"github.com/kuzumem/kuzumem-mcp/internal/repository"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Dependencies returns one-hop DEPENDS_ON targets of a component.
func (s *Service) Dependencies(ctx context.Context, root, repo, branch, id string) ([]*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "query dependencies", repo, branch)
	}
	out, err := st.components.GetDependencies(ctx, repo, id, branch)
	return out, annotate(err, "query dependencies", repo, branch)
}

// Dependents returns one-hop DEPENDS_ON sources of a component.
func (s *Service) Dependents(ctx context.Context, root, repo, branch, id string) ([]*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "query dependents", repo, branch)
	}
	out, err := st.components.GetDependents(ctx, repo, id, branch)
	return out, annotate(err, "query dependents", repo, branch)
}

// Related returns components reachable within depth hops over the given
// relationship types.
func (s *Service) Related(ctx context.Context, root, repo, branch, id string, relTypes []string, depth int, dir repository.Direction) ([]*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "query related", repo, branch)
	}
	out, err := st.components.GetRelated(ctx, repo, id, branch, relTypes, depth, dir)
	return out, annotate(err, "query related", repo, branch)
}

// GoverningDecisions returns decisions with AFFECTS edges into a component.
func (s *Service) GoverningDecisions(ctx context.Context, root, repo, branch, id string) ([]*types.Decision, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "query governance", repo, branch)
	}
	out, err := st.components.GetGoverningDecisions(ctx, repo, id, branch)
	return out, annotate(err, "query governance", repo, branch)
}

// ContextualHistory returns context entries attached to an item, newest
// first.
func (s *Service) ContextualHistory(ctx context.Context, root, repo, branch, id, itemType string) ([]*types.Context, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "query history", repo, branch)
	}
	out, err := st.components.GetItemContextualHistory(ctx, repo, id, branch, itemType)
	return out, annotate(err, "query history", repo, branch)
}

// ShortestPath returns the shortest component path between two IDs; an empty
// path means no route.
func (s *Service) ShortestPath(ctx context.Context, root, repo, branch, startID, endID string, opts *repository.PathOptions) (*repository.Path, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "analyze shortest-path", repo, branch)
	}
	out, err := st.components.FindShortestPath(ctx, repo, startID, endID, branch, opts)
	return out, annotate(err, "analyze shortest-path", repo, branch)
}

// PageRank ranks components by dependency PageRank.
func (s *Service) PageRank(ctx context.Context, root, repo, branch string, opts *repository.PageRankOptions) ([]*repository.RankedComponent, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "analyze pagerank", repo, branch)
	}
	out, err := st.components.PageRank(ctx, repo, branch, opts)
	return out, annotate(err, "analyze pagerank", repo, branch)
}

// KCore returns components with k-core degree at least k.
func (s *Service) KCore(ctx context.Context, root, repo, branch string, k int) ([]*repository.RankedComponent, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "analyze k-core", repo, branch)
	}
	out, err := st.components.KCore(ctx, repo, branch, k)
	return out, annotate(err, "analyze k-core", repo, branch)
}

// Louvain returns components grouped by Louvain community.
func (s *Service) Louvain(ctx context.Context, root, repo, branch string) ([]*repository.GroupedComponent, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "analyze louvain", repo, branch)
	}
	out, err := st.components.Louvain(ctx, repo, branch)
	return out, annotate(err, "analyze louvain", repo, branch)
}

// StronglyConnectedComponents returns SCC group assignments.
func (s *Service) StronglyConnectedComponents(ctx context.Context, root, repo, branch string) ([]*repository.GroupedComponent, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "analyze scc", repo, branch)
	}
	out, err := st.components.StronglyConnectedComponents(ctx, repo, branch)
	return out, annotate(err, "analyze scc", repo, branch)
}

// WeaklyConnectedComponents returns WCC group assignments.
func (s *Service) WeaklyConnectedComponents(ctx context.Context, root, repo, branch string) ([]*repository.GroupedComponent, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "analyze wcc", repo, branch)
	}
	out, err := st.components.WeaklyConnectedComponents(ctx, repo, branch)
	return out, annotate(err, "analyze wcc", repo, branch)
}

// DetectCycles reports dependency cycles as SCC groups with more than one
// member.
func (s *Service) DetectCycles(ctx context.Context, root, repo, branch string) ([][]*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "detect cycles", repo, branch)
	}
	out, err := st.components.DetectCycles(ctx, repo, branch)
	return out, annotate(err, "detect cycles", repo, branch)
}

// SearchKeyword runs the label-scoped keyword search.
func (s *Service) SearchKeyword(ctx context.Context, root, repo, branch, query, entityType string, limit int) ([]*repository.SearchHit, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "search", repo, branch)
	}
	out, err := st.searcher.Keyword(ctx, repo, branch, query, entityType, limit)
	return out, annotate(err, "search", repo, branch)
}

// SearchSemantic returns the placeholder semantic result.
func (s *Service) SearchSemantic(ctx context.Context, root, query string) ([]*repository.SearchHit, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, err
	}
	return st.searcher.Semantic(ctx, query), nil
}
