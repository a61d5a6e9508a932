package memory

import (
	"context"

	"github.com/kuzumem/kuzumem-mcp/internal/repository"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// UpsertComponent creates or updates a component, rewriting its dependency
// edges when DependsOn is supplied.
func (s *Service) UpsertComponent(ctx context.Context, root, repo, branch string, comp *types.Component) (*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "component upsert", repo, branch)
	}
	out, err := st.components.Upsert(ctx, repo, branch, comp)
	return out, annotate(err, "component upsert", repo, branch)
}

// GetComponent returns one component with depends_on populated, or nil.
func (s *Service) GetComponent(ctx context.Context, root, repo, branch, id string) (*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "component get", repo, branch)
	}
	out, err := st.components.FindByIDAndBranch(ctx, repo, id, branch)
	return out, annotate(err, "component get", repo, branch)
}

// ListComponents returns every component in (repo, branch).
func (s *Service) ListComponents(ctx context.Context, root, repo, branch string) ([]*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "component list", repo, branch)
	}
	out, err := st.components.List(ctx, repo, branch)
	return out, annotate(err, "component list", repo, branch)
}

// ActiveComponents returns components with status "active".
func (s *Service) ActiveComponents(ctx context.Context, root, repo, branch string) ([]*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "component list", repo, branch)
	}
	out, err := st.components.GetActive(ctx, repo, branch)
	return out, annotate(err, "component list", repo, branch)
}

// UpdateComponentStatus sets a component's lifecycle status; a missing
// component returns nil without error.
func (s *Service) UpdateComponentStatus(ctx context.Context, root, repo, branch, id string, status types.ComponentStatus) (*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "component update-status", repo, branch)
	}
	out, err := st.components.UpdateStatus(ctx, repo, id, branch, status)
	return out, annotate(err, "component update-status", repo, branch)
}

// UpsertDecision creates or updates a decision.
func (s *Service) UpsertDecision(ctx context.Context, root, repo, branch string, dec *types.Decision) (*types.Decision, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "decision upsert", repo, branch)
	}
	out, err := st.decisions.Upsert(ctx, repo, branch, dec)
	return out, annotate(err, "decision upsert", repo, branch)
}

// GetDecision returns one decision, or nil.
func (s *Service) GetDecision(ctx context.Context, root, repo, branch, id string) (*types.Decision, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "decision get", repo, branch)
	}
	out, err := st.decisions.Find(ctx, repo, branch, id)
	return out, annotate(err, "decision get", repo, branch)
}

// DecisionsByDateRange lists decisions inside [start, end]; empty bounds are
// open.
func (s *Service) DecisionsByDateRange(ctx context.Context, root, repo, branch, start, end string) ([]*types.Decision, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "decision list", repo, branch)
	}
	out, err := st.decisions.ListByDateRange(ctx, repo, branch, start, end)
	return out, annotate(err, "decision list", repo, branch)
}

// UpsertRule creates or updates a rule.
func (s *Service) UpsertRule(ctx context.Context, root, repo, branch string, rule *types.Rule) (*types.Rule, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "rule upsert", repo, branch)
	}
	out, err := st.rules.Upsert(ctx, repo, branch, rule)
	return out, annotate(err, "rule upsert", repo, branch)
}

// GetRule returns one rule, or nil.
func (s *Service) GetRule(ctx context.Context, root, repo, branch, id string) (*types.Rule, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "rule get", repo, branch)
	}
	out, err := st.rules.Find(ctx, repo, branch, id)
	return out, annotate(err, "rule get", repo, branch)
}

// ActiveRules lists rules with status "active".
func (s *Service) ActiveRules(ctx context.Context, root, repo, branch string) ([]*types.Rule, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "rule list", repo, branch)
	}
	out, err := st.rules.ListActive(ctx, repo, branch)
	return out, annotate(err, "rule list", repo, branch)
}

// ListRules returns every rule in (repo, branch).
func (s *Service) ListRules(ctx context.Context, root, repo, branch string) ([]*types.Rule, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "rule list", repo, branch)
	}
	out, err := st.rules.List(ctx, repo, branch)
	return out, annotate(err, "rule list", repo, branch)
}

// ListFiles returns every file scoped to the branch.
func (s *Service) ListFiles(ctx context.Context, root, branch string) ([]*types.File, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, err
	}
	return st.files.List(ctx, branch)
}

// UpsertFile creates or updates a file node. The PART_OF edge is skipped
// when the Repository node does not exist yet.
func (s *Service) UpsertFile(ctx context.Context, root, repo, branch string, file *types.File) (*types.File, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "file upsert", repo, branch)
	}
	out, err := st.files.Upsert(ctx, repo, branch, file)
	return out, annotate(err, "file upsert", repo, branch)
}

// GetFile returns one file, branch-filtered through its metadata blob.
func (s *Service) GetFile(ctx context.Context, root, repo, branch, id string) (*types.File, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "file get", repo, branch)
	}
	out, err := st.files.Find(ctx, id, branch)
	return out, annotate(err, "file get", repo, branch)
}

// AddFileToComponent records an IMPLEMENTS edge.
func (s *Service) AddFileToComponent(ctx context.Context, root, repo, branch, componentID, fileID string) error {
	st, err := s.stores(ctx, root)
	if err != nil {
		return annotate(err, "associate file", repo, branch)
	}
	return annotate(st.files.AddToComponent(ctx, repo, branch, componentID, fileID), "associate file", repo, branch)
}

// FilesByComponent lists files a component implements.
func (s *Service) FilesByComponent(ctx context.Context, root, repo, branch, componentID string) ([]*types.File, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "file list", repo, branch)
	}
	out, err := st.files.FindByComponent(ctx, repo, branch, componentID)
	return out, annotate(err, "file list", repo, branch)
}

// ComponentsByFile lists components implemented by a file.
func (s *Service) ComponentsByFile(ctx context.Context, root, repo, branch, fileID string) ([]*types.Component, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "component list", repo, branch)
	}
	out, err := st.files.FindComponentsByFile(ctx, repo, branch, fileID)
	return out, annotate(err, "component list", repo, branch)
}

// UpsertTag creates or updates a project-global tag.
func (s *Service) UpsertTag(ctx context.Context, root string, tag *types.Tag) (*types.Tag, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, err
	}
	return st.tags.Upsert(ctx, tag)
}

// GetTag returns one tag by ID, or nil.
func (s *Service) GetTag(ctx context.Context, root, id string) (*types.Tag, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, err
	}
	return st.tags.FindByID(ctx, id)
}

// GetTagByName returns one tag by name, or nil.
func (s *Service) GetTagByName(ctx context.Context, root, name string) (*types.Tag, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, err
	}
	return st.tags.FindByName(ctx, name)
}

// ListTags returns every tag in the project.
func (s *Service) ListTags(ctx context.Context, root string) ([]*types.Tag, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, err
	}
	return st.tags.List(ctx)
}

// AddItemTag attaches a tag to a taggable item.
func (s *Service) AddItemTag(ctx context.Context, root, repo, branch, itemType, itemID, tagID string) error {
	st, err := s.stores(ctx, root)
	if err != nil {
		return annotate(err, "associate tag", repo, branch)
	}
	return annotate(st.tags.AddItemTag(ctx, repo, branch, itemType, itemID, tagID), "associate tag", repo, branch)
}

// ItemsByTag lists everything carrying a tag, optionally filtered by type.
func (s *Service) ItemsByTag(ctx context.Context, root, repo, branch, tagID, itemType string) ([]*types.TaggedItem, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "tag query", repo, branch)
	}
	out, err := st.tags.FindItemsByTag(ctx, repo, branch, tagID, itemType)
	return out, annotate(err, "tag query", repo, branch)
}

// Delete executes a single or bulk deletion per the request's mode.
func (s *Service) Delete(ctx context.Context, root, repo, branch string, req *repository.DeleteRequest) (*repository.DeleteResult, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "delete", repo, branch)
	}
	out, err := st.deleter.Delete(ctx, repo, branch, req)
	return out, annotate(err, "delete", repo, branch)
}

// AddDecisionAffects records a Decision-AFFECTS-Component edge.
func (s *Service) AddDecisionAffects(ctx context.Context, root, repo, branch, decisionID, componentID string) error {
	st, err := s.stores(ctx, root)
	if err != nil {
		return annotate(err, "associate decision", repo, branch)
	}
	return annotate(st.decisions.Affects(ctx, repo, branch, decisionID, componentID), "associate decision", repo, branch)
}

// AddRuleGoverns records a Rule-GOVERNS-Component edge.
func (s *Service) AddRuleGoverns(ctx context.Context, root, repo, branch, ruleID, componentID string) error {
	st, err := s.stores(ctx, root)
	if err != nil {
		return annotate(err, "associate rule", repo, branch)
	}
	return annotate(st.rules.Governs(ctx, repo, branch, ruleID, componentID), "associate rule", repo, branch)
}
