package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Files accesses File nodes. File node IDs are bare logical IDs, not
// three-segment graph IDs; branch scoping lives inside the metadata blob.
type Files struct {
	h store
}

// NewFiles returns an accessor bound to the handle.
func NewFiles(h *database.Handle) *Files {
	return &Files{h: handleStore{h}}
}

// Find returns one file by ID, or nil when absent. The branch filter matches
// against the metadata blob; an empty branch matches any.
func (f *Files) Find(ctx context.Context, id, branch string) (*types.File, error) {
	q := `MATCH (f:File {id: $id})`
	params := map[string]any{"id": id}
	if branch != "" {
		q += ` WHERE json_extract_string(f.metadata, '$.branch') = $branch`
		params["branch"] = branch
	}
	q += ` RETURN f`
	rows, err := f.h.ExecuteQuery(ctx, q, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return fileFromValue(rows[0]["f"]), nil
}

// Upsert merges the file node. When the Repository node already exists the
// PART_OF edge is merged too; when it does not, the upsert still succeeds
// and only the edge is skipped.
func (f *Files) Upsert(ctx context.Context, repo, branch string, file *types.File) (*types.File, error) {
	if file.ID == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "file id is required")
	}
	if file.Name == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "file name is required")
	}
	md := file.Metadata
	if md.Branch == "" {
		md.Branch = branch
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("encode file metadata: %w", err)
	}
	repoNodeID := types.RepositoryNodeID(repo, branch)
	now := time.Now().UTC()

	err = f.h.Transaction(ctx, func(tx executor) error {
		if _, err := tx.ExecuteQuery(ctx, `
			MERGE (f:File {id: $id})
			ON CREATE SET f.name = $name, f.path = $path, f.mime_type = $mime,
				f.size = $size, f.metadata = $metadata,
				f.created_at = $now, f.updated_at = $now
			ON MATCH SET f.name = $name, f.path = $path, f.mime_type = $mime,
				f.size = $size, f.metadata = $metadata, f.updated_at = $now`,
			map[string]any{
				"id": file.ID, "name": file.Name, "path": file.Path,
				"mime": file.MimeType, "size": file.Size,
				"metadata": string(raw), "now": now,
			}); err != nil {
			return err
		}
		rows, err := tx.ExecuteQuery(ctx,
			`MATCH (r:Repository {id: $rid}) RETURN r.id`,
			map[string]any{"rid": repoNodeID})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			// No repository yet; the file stands alone until one is created.
			return nil
		}
		return mergePartOf(ctx, tx, "File", file.ID, repoNodeID)
	})
	if err != nil {
		return nil, err
	}
	return f.Find(ctx, file.ID, "")
}

// List returns every file whose metadata branch matches.
func (f *Files) List(ctx context.Context, branch string) ([]*types.File, error) {
	rows, err := f.h.ExecuteQuery(ctx, `
		MATCH (f:File)
		WHERE json_extract_string(f.metadata, '$.branch') = $branch
		RETURN f ORDER BY f.name`,
		map[string]any{"branch": branch})
	if err != nil {
		return nil, err
	}
	out := make([]*types.File, 0, len(rows))
	for _, row := range rows {
		if file := fileFromValue(row["f"]); file != nil {
			out = append(out, file)
		}
	}
	return out, nil
}

// AddToComponent records that a component is implemented by a file.
func (f *Files) AddToComponent(ctx context.Context, repo, branch, componentID, fileID string) error {
	rows, err := f.h.ExecuteQuery(ctx, `
		MATCH (comp:Component {id: $cgid}), (f:File {id: $fid})
		MERGE (comp)-[:IMPLEMENTS]->(f)
		RETURN comp.id`,
		map[string]any{
			"cgid": types.GraphID(repo, branch, componentID),
			"fid":  fileID,
		})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return types.NewError(types.CodeNotFound, "component %q or file %q not found", componentID, fileID)
	}
	return nil
}

// FindByComponent returns the files a component implements, filtered to the
// branch recorded in each file's metadata.
func (f *Files) FindByComponent(ctx context.Context, repo, branch, componentID string) ([]*types.File, error) {
	rows, err := f.h.ExecuteQuery(ctx, `
		MATCH (comp:Component {id: $cgid})-[:IMPLEMENTS]->(f:File)
		WHERE json_extract_string(f.metadata, '$.branch') = $branch
		RETURN f ORDER BY f.name`,
		map[string]any{
			"cgid":   types.GraphID(repo, branch, componentID),
			"branch": branch,
		})
	if err != nil {
		return nil, err
	}
	out := make([]*types.File, 0, len(rows))
	for _, row := range rows {
		if file := fileFromValue(row["f"]); file != nil {
			out = append(out, file)
		}
	}
	return out, nil
}

// FindComponentsByFile returns the components implemented by a file within
// (repo, branch).
func (f *Files) FindComponentsByFile(ctx context.Context, repo, branch, fileID string) ([]*types.Component, error) {
	rows, err := f.h.ExecuteQuery(ctx, `
		MATCH (comp:Component)-[:IMPLEMENTS]->(f:File {id: $fid})
		MATCH (comp)-[:PART_OF]->(r:Repository {id: $rid})
		RETURN comp ORDER BY comp.name`,
		map[string]any{
			"fid": fileID,
			"rid": types.RepositoryNodeID(repo, branch),
		})
	if err != nil {
		return nil, err
	}
	return componentsFromRows(rows, "comp"), nil
}
