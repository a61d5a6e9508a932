package repository

import (
	"context"
	"fmt"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Deleter implements the destructive operations. Every mode except single
// requires confirm=true; dryRun lists the would-be-deleted set without
// touching the graph.
type Deleter struct {
	h executor
}

// NewDeleter returns an accessor bound to the handle.
func NewDeleter(h *database.Handle) *Deleter {
	return &Deleter{h: h}
}

// DeleteRequest selects what to delete.
type DeleteRequest struct {
	Operation  string // single, bulk-by-type, bulk-by-tag, bulk-by-branch, bulk-by-repository
	EntityType string // for single and bulk-by-type
	ID         string // for single
	TagID      string // for bulk-by-tag
	Branch     string // for bulk-by-branch; defaults to the call's branch
	Confirm    bool
	DryRun     bool
}

// DeleteResult reports what was (or would be) removed.
type DeleteResult struct {
	Count    int      `json:"count"`
	Entities []string `json:"entities"`
	Warnings []string `json:"warnings,omitempty"`
	Message  string   `json:"message"`
	DryRun   bool     `json:"dry_run,omitempty"`
}

// Delete dispatches on the operation mode. Deletions are DETACH DELETE, so
// dangling edges go with the node.
func (d *Deleter) Delete(ctx context.Context, repo, branch string, req *DeleteRequest) (*DeleteResult, error) {
	if req.Operation != "single" && !req.Confirm && !req.DryRun {
		return nil, types.NewError(types.CodeConfirmationRequired,
			"bulk delete %q requires confirm=true", req.Operation)
	}
	switch req.Operation {
	case "single":
		return d.deleteSingle(ctx, repo, branch, req)
	case "bulk-by-type":
		return d.deleteByType(ctx, repo, branch, req)
	case "bulk-by-tag":
		return d.deleteByTag(ctx, repo, branch, req)
	case "bulk-by-branch":
		return d.deleteByBranch(ctx, repo, branch, req)
	case "bulk-by-repository":
		return d.deleteByRepository(ctx, repo, branch, req)
	default:
		return nil, types.NewError(types.CodeUnsupportedOperation,
			"delete operation %q is not supported", req.Operation)
	}
}

func (d *Deleter) deleteSingle(ctx context.Context, repo, branch string, req *DeleteRequest) (*DeleteResult, error) {
	label := entityLabel(req.EntityType)
	if label == "" || label == "Repository" {
		return nil, types.NewError(types.CodeInvalidArgs, "cannot delete entities of type %q", req.EntityType)
	}
	if req.ID == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "single delete requires an id")
	}
	nodeID := types.GraphID(repo, branch, req.ID)
	if label == "File" || label == "Tag" {
		nodeID = req.ID
	}
	ids, err := d.collect(ctx,
		`MATCH (n:`+label+` {id: $id}) RETURN n.id AS id`,
		map[string]any{"id": nodeID})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, types.NewError(types.CodeNotFound, "%s %q not found", req.EntityType, req.ID)
	}
	if req.DryRun {
		return dryRunResult(ids, fmt.Sprintf("Would delete %s %s", req.EntityType, req.ID)), nil
	}
	_, err = d.h.ExecuteQuery(ctx,
		`MATCH (n:`+label+` {id: $id}) DETACH DELETE n`,
		map[string]any{"id": nodeID})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{
		Count:    1,
		Entities: ids,
		Message:  fmt.Sprintf("Deleted %s %s", req.EntityType, req.ID),
	}, nil
}

func (d *Deleter) deleteByType(ctx context.Context, repo, branch string, req *DeleteRequest) (*DeleteResult, error) {
	label := entityLabel(req.EntityType)
	if label == "" || label == "Repository" {
		return nil, types.NewError(types.CodeInvalidArgs, "cannot bulk-delete entities of type %q", req.EntityType)
	}
	rid := types.RepositoryNodeID(repo, branch)
	match := `MATCH (n:` + label + `)-[:PART_OF]->(r:Repository {id: $rid})`
	params := map[string]any{"rid": rid}
	ids, err := d.collect(ctx, match+` RETURN n.id AS id`, params)
	if err != nil {
		return nil, err
	}
	if req.DryRun {
		return dryRunResult(ids, fmt.Sprintf("Would delete %d %s entities from %s", len(ids), req.EntityType, rid)), nil
	}
	if _, err := d.h.ExecuteQuery(ctx, match+` DETACH DELETE n`, params); err != nil {
		return nil, err
	}
	return &DeleteResult{
		Count:    len(ids),
		Entities: ids,
		Message:  fmt.Sprintf("Deleted %d %s entities from %s", len(ids), req.EntityType, rid),
	}, nil
}

func (d *Deleter) deleteByTag(ctx context.Context, repo, branch string, req *DeleteRequest) (*DeleteResult, error) {
	if req.TagID == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "bulk-by-tag requires a tag id")
	}
	var ids []string
	var warnings []string
	// Per-label passes: TAGGED_WITH spans heterogeneous node tables.
	for _, label := range taggableLabels {
		match := `MATCH (n:` + label + `)-[:TAGGED_WITH]->(t:Tag {id: $tid})`
		labelIDs, err := d.collect(ctx, match+` RETURN n.id AS id`, map[string]any{"tid": req.TagID})
		if err != nil {
			return nil, err
		}
		if len(labelIDs) == 0 {
			continue
		}
		ids = append(ids, labelIDs...)
		if req.DryRun {
			continue
		}
		if _, err := d.h.ExecuteQuery(ctx, match+` DETACH DELETE n`, map[string]any{"tid": req.TagID}); err != nil {
			warnings = append(warnings, fmt.Sprintf("delete %s by tag: %s", label, err))
		}
	}
	if req.DryRun {
		return dryRunResult(ids, fmt.Sprintf("Would delete %d entities tagged %s", len(ids), req.TagID)), nil
	}
	return &DeleteResult{
		Count:    len(ids),
		Entities: ids,
		Warnings: warnings,
		Message:  fmt.Sprintf("Deleted %d entities tagged %s", len(ids), req.TagID),
	}, nil
}

func (d *Deleter) deleteByBranch(ctx context.Context, repo, branch string, req *DeleteRequest) (*DeleteResult, error) {
	target := req.Branch
	if target == "" {
		target = branch
	}
	rid := types.RepositoryNodeID(repo, target)
	var ids []string
	for _, label := range entityLabels {
		labelIDs, err := d.collect(ctx,
			`MATCH (n:`+label+`)-[:PART_OF]->(r:Repository {id: $rid}) RETURN n.id AS id`,
			map[string]any{"rid": rid})
		if err != nil {
			return nil, err
		}
		ids = append(ids, labelIDs...)
	}
	if req.DryRun {
		return dryRunResult(ids, fmt.Sprintf("Would delete %d entities from branch %s", len(ids), target)), nil
	}
	for _, label := range entityLabels {
		if _, err := d.h.ExecuteQuery(ctx,
			`MATCH (n:`+label+`)-[:PART_OF]->(r:Repository {id: $rid}) DETACH DELETE n`,
			map[string]any{"rid": rid}); err != nil {
			return nil, err
		}
	}
	// The Repository node itself survives bulk-by-branch.
	return &DeleteResult{
		Count:    len(ids),
		Entities: ids,
		Message:  fmt.Sprintf("Deleted %d entities from branch %s", len(ids), target),
	}, nil
}

func (d *Deleter) deleteByRepository(ctx context.Context, repo, branch string, req *DeleteRequest) (*DeleteResult, error) {
	// Every branch of the named repository: node IDs are "repo:branch", so a
	// prefix match on "repo:" finds them all.
	ridPrefix := repo + ":"
	repoRows, err := d.h.ExecuteQuery(ctx, `
		MATCH (r:Repository)
		WHERE r.id STARTS WITH $prefix
		RETURN r.id AS id`,
		map[string]any{"prefix": ridPrefix})
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, row := range repoRows {
		rid := asString(row["id"])
		for _, label := range entityLabels {
			labelIDs, err := d.collect(ctx,
				`MATCH (n:`+label+`)-[:PART_OF]->(r:Repository {id: $rid}) RETURN n.id AS id`,
				map[string]any{"rid": rid})
			if err != nil {
				return nil, err
			}
			ids = append(ids, labelIDs...)
		}
		ids = append(ids, rid)
	}
	if req.DryRun {
		return dryRunResult(ids, fmt.Sprintf("Would delete %d entities from repository %s", len(ids), repo)), nil
	}
	for _, row := range repoRows {
		rid := asString(row["id"])
		for _, label := range entityLabels {
			if _, err := d.h.ExecuteQuery(ctx,
				`MATCH (n:`+label+`)-[:PART_OF]->(r:Repository {id: $rid}) DETACH DELETE n`,
				map[string]any{"rid": rid}); err != nil {
				return nil, err
			}
		}
		if _, err := d.h.ExecuteQuery(ctx,
			`MATCH (r:Repository {id: $rid}) DETACH DELETE r`,
			map[string]any{"rid": rid}); err != nil {
			return nil, err
		}
	}
	return &DeleteResult{
		Count:    len(ids),
		Entities: ids,
		Message:  fmt.Sprintf("Deleted %d entities from repository %s", len(ids), repo),
	}, nil
}

func (d *Deleter) collect(ctx context.Context, q string, params map[string]any) ([]string, error) {
	rows, err := d.h.ExecuteQuery(ctx, q, params)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id := asString(row["id"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func dryRunResult(ids []string, msg string) *DeleteResult {
	return &DeleteResult{
		Count:    len(ids),
		Entities: ids,
		Message:  msg,
		DryRun:   true,
	}
}
