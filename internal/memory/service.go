// Package memory is the single façade tool handlers and the CLI talk to. It
// resolves the database handle for a client project root and dispatches to
// the graph access layer; it never reshapes domain data on the way back.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/repository"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Service dispatches memory-bank operations against per-project databases.
type Service struct {
	manager *database.Manager
	logger  *slog.Logger
}

// NewService wires the façade to an explicit handle manager. Tests inject a
// manager pointed at a temp directory.
func NewService(manager *database.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{manager: manager, logger: logger}
}

// Manager exposes the underlying handle manager for transport-level stats.
func (s *Service) Manager() *database.Manager { return s.manager }

// Shutdown closes every cached database handle.
func (s *Service) Shutdown() {
	s.manager.Shutdown()
}

// stores bundles one handle's accessors so each call site names just what it
// needs.
type stores struct {
	handle     *database.Handle
	repos      *repository.Repositories
	metadata   *repository.Metadatas
	contexts   *repository.Contexts
	components *repository.Components
	decisions  *repository.Decisions
	rules      *repository.Rules
	files      *repository.Files
	tags       *repository.Tags
	deleter    *repository.Deleter
	searcher   *repository.Searcher
}

func (s *Service) stores(ctx context.Context, clientProjectRoot string) (*stores, error) {
	h, err := s.manager.Acquire(ctx, clientProjectRoot)
	if err != nil {
		return nil, err
	}
	return &stores{
		handle:     h,
		repos:      repository.NewRepositories(h),
		metadata:   repository.NewMetadatas(h),
		contexts:   repository.NewContexts(h),
		components: repository.NewComponents(h),
		decisions:  repository.NewDecisions(h),
		rules:      repository.NewRules(h),
		files:      repository.NewFiles(h),
		tags:       repository.NewTags(h),
		deleter:    repository.NewDeleter(h),
		searcher:   repository.NewSearcher(h),
	}, nil
}

// annotate attaches the operation and scope to an error on its way up.
func annotate(err error, op, repo, branch string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s (repository=%s, branch=%s): %w", op, repo, branch, err)
}

// InitMemoryBank initializes the project's database, ensures the Repository
// node, and seeds the metadata blob when absent.
func (s *Service) InitMemoryBank(ctx context.Context, root, repo, branch string) (*types.Metadata, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "memory-bank init", repo, branch)
	}
	if _, err := st.repos.Ensure(ctx, repo, branch); err != nil {
		return nil, annotate(err, "memory-bank init", repo, branch)
	}
	md, err := st.metadata.Find(ctx, repo, branch)
	if err != nil {
		return nil, annotate(err, "memory-bank init", repo, branch)
	}
	if md == nil {
		md, err = st.metadata.Upsert(ctx, repo, branch, &types.Metadata{
			Name: repo,
			Content: map[string]any{
				"project":     repo,
				"branch":      branch,
				"initialized": time.Now().UTC().Format(time.RFC3339),
			},
		})
		if err != nil {
			return nil, annotate(err, "memory-bank init", repo, branch)
		}
	}
	s.logger.Info("memory bank ready", "root", root, "repository", repo, "branch", branch)
	return md, nil
}

// GetMetadata returns the branch's metadata blob, or nil when the bank holds
// none yet.
func (s *Service) GetMetadata(ctx context.Context, root, repo, branch string) (*types.Metadata, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "get-metadata", repo, branch)
	}
	md, err := st.metadata.Find(ctx, repo, branch)
	return md, annotate(err, "get-metadata", repo, branch)
}

// UpdateMetadata replaces the branch's metadata content.
func (s *Service) UpdateMetadata(ctx context.Context, root, repo, branch string, md *types.Metadata) (*types.Metadata, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "update-metadata", repo, branch)
	}
	out, err := st.metadata.Upsert(ctx, repo, branch, md)
	return out, annotate(err, "update-metadata", repo, branch)
}

// UpdateContext merges into today's (or the named) context entry.
func (s *Service) UpdateContext(ctx context.Context, root, repo, branch string, in *types.Context) (*types.Context, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "context update", repo, branch)
	}
	out, err := st.contexts.Update(ctx, repo, branch, in)
	return out, annotate(err, "context update", repo, branch)
}

// GetContext returns one context entry by logical ID.
func (s *Service) GetContext(ctx context.Context, root, repo, branch, id string) (*types.Context, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "context get", repo, branch)
	}
	out, err := st.contexts.Find(ctx, repo, branch, id)
	return out, annotate(err, "context get", repo, branch)
}

// LatestContexts returns the newest context entries, capped by limit.
func (s *Service) LatestContexts(ctx context.Context, root, repo, branch string, limit int) ([]*types.Context, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "context list", repo, branch)
	}
	out, err := st.contexts.Latest(ctx, repo, branch, limit)
	return out, annotate(err, "context list", repo, branch)
}

// AttachContext records a CONTEXT_OF edge from a context entry to an item.
func (s *Service) AttachContext(ctx context.Context, root, repo, branch, contextID, itemType, itemID string) error {
	st, err := s.stores(ctx, root)
	if err != nil {
		return annotate(err, "context attach", repo, branch)
	}
	return annotate(st.contexts.Attach(ctx, repo, branch, contextID, itemType, itemID), "context attach", repo, branch)
}

// ListContexts returns every context entry for (repo, branch), newest first.
func (s *Service) ListContexts(ctx context.Context, root, repo, branch string) ([]*types.Context, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "context list", repo, branch)
	}
	out, err := st.contexts.List(ctx, repo, branch)
	return out, annotate(err, "context list", repo, branch)
}

// ListRepositories returns every Repository node in the project's database.
func (s *Service) ListRepositories(ctx context.Context, root string) ([]*types.Repository, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, err
	}
	return st.repos.List(ctx)
}

// CloseProject drops the project's handle from the registry.
func (s *Service) CloseProject(root string) {
	s.manager.Close(root)
}
