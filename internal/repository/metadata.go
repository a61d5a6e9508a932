package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// metadataLogicalID is the fixed logical ID of the one Metadata node per
// (repo, branch).
const metadataLogicalID = "meta"

// Metadatas accesses the per-branch Metadata blob.
type Metadatas struct {
	h store
}

// NewMetadatas returns an accessor bound to the handle.
func NewMetadatas(h *database.Handle) *Metadatas {
	return &Metadatas{h: handleStore{h}}
}

// Find returns the branch's metadata, or nil when absent.
func (m *Metadatas) Find(ctx context.Context, repo, branch string) (*types.Metadata, error) {
	rows, err := m.h.ExecuteQuery(ctx,
		`MATCH (md:Metadata {id: $gid}) RETURN md`,
		map[string]any{"gid": types.GraphID(repo, branch, metadataLogicalID)})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return metadataFromValue(rows[0]["md"]), nil
}

// Upsert merges the metadata node and its PART_OF edge. Content replaces
// the stored blob wholesale.
func (m *Metadatas) Upsert(ctx context.Context, repo, branch string, md *types.Metadata) (*types.Metadata, error) {
	name := md.Name
	if name == "" {
		name = repo
	}
	content := md.Content
	if content == nil {
		content = map[string]any{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode metadata content: %w", err)
	}
	gid := types.GraphID(repo, branch, metadataLogicalID)
	repoNodeID := types.RepositoryNodeID(repo, branch)
	now := time.Now().UTC()

	err = m.h.Transaction(ctx, func(tx executor) error {
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (r:Repository {id: $rid})
			ON CREATE SET r.name = $repo, r.branch = $branch, r.created_at = $now, r.updated_at = $now
			ON MATCH SET r.updated_at = $now`,
			map[string]any{"rid": repoNodeID, "repo": repo, "branch": branch, "now": now}); err != nil {
			return err
		}
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (md:Metadata {id: $gid})
			ON CREATE SET md.name = $name, md.content = $content, md.created_at = $now, md.updated_at = $now
			ON MATCH SET md.name = $name, md.content = $content, md.updated_at = $now`,
			map[string]any{"gid": gid, "name": name, "content": string(raw), "now": now}); err != nil {
			return err
		}
		return mergePartOf(ctx, tx, "Metadata", gid, repoNodeID)
	})
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, repo, branch)
}
