package repository

import (
	"context"
	"time"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Tags accesses Tag nodes. Tags are project-global: their node IDs are bare
// logical IDs and they carry no PART_OF edge.
type Tags struct {
	h executor
}

// NewTags returns an accessor bound to the handle.
func NewTags(h *database.Handle) *Tags {
	return &Tags{h: h}
}

// Upsert merges the tag and returns it.
func (t *Tags) Upsert(ctx context.Context, tag *types.Tag) (*types.Tag, error) {
	if err := tag.Validate(); err != nil {
		return nil, types.NewError(types.CodeInvalidArgs, "%s", err)
	}
	now := time.Now().UTC()
	_, err := t.h.ExecuteQuery(ctx, `
		MERGE (t:Tag {id: $id})
		ON CREATE SET t.name = $name, t.category = $category, t.description = $description,
			t.color = $color, t.created_at = $now, t.updated_at = $now
		ON MATCH SET t.name = $name, t.category = $category, t.description = $description,
			t.color = $color, t.updated_at = $now`,
		map[string]any{
			"id": tag.ID, "name": tag.Name, "category": tag.Category,
			"description": tag.Description, "color": tag.Color, "now": now,
		})
	if err != nil {
		return nil, err
	}
	return t.FindByID(ctx, tag.ID)
}

// FindByID returns one tag, or nil when absent.
func (t *Tags) FindByID(ctx context.Context, id string) (*types.Tag, error) {
	rows, err := t.h.ExecuteQuery(ctx,
		`MATCH (t:Tag {id: $id}) RETURN t`,
		map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return tagFromValue(rows[0]["t"]), nil
}

// FindByName returns one tag by name, or nil when absent.
func (t *Tags) FindByName(ctx context.Context, name string) (*types.Tag, error) {
	rows, err := t.h.ExecuteQuery(ctx,
		`MATCH (t:Tag {name: $name}) RETURN t LIMIT 1`,
		map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return tagFromValue(rows[0]["t"]), nil
}

// List returns every tag, ordered by name.
func (t *Tags) List(ctx context.Context) ([]*types.Tag, error) {
	rows, err := t.h.ExecuteQuery(ctx, `MATCH (t:Tag) RETURN t ORDER BY t.name`, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Tag, 0, len(rows))
	for _, row := range rows {
		if tag := tagFromValue(row["t"]); tag != nil {
			out = append(out, tag)
		}
	}
	return out, nil
}

// AddItemTag attaches a tag to a component, decision, rule, file, or
// context. Repo-scoped items are addressed by graph ID, files by bare ID.
func (t *Tags) AddItemTag(ctx context.Context, repo, branch, itemType, itemID, tagID string) error {
	label := entityLabel(itemType)
	if !isTaggable(label) {
		return types.NewError(types.CodeInvalidArgs, "items of type %q cannot be tagged", itemType)
	}
	nodeID := types.GraphID(repo, branch, itemID)
	if label == "File" {
		nodeID = itemID
	}
	q := `MATCH (item:` + label + ` {id: $iid}), (t:Tag {id: $tid}) MERGE (item)-[:TAGGED_WITH]->(t) RETURN item.id`
	rows, err := t.h.ExecuteQuery(ctx, q, map[string]any{"iid": nodeID, "tid": tagID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return types.NewError(types.CodeNotFound, "item %q (%s) or tag %q not found", itemID, itemType, tagID)
	}
	return nil
}

// FindItemsByTag returns everything carrying the tag, optionally restricted
// to one item type. Repo-scoped labels are filtered through their PART_OF
// edge; files match on the branch in their metadata.
func (t *Tags) FindItemsByTag(ctx context.Context, repo, branch, tagID, itemType string) ([]*types.TaggedItem, error) {
	labels := taggableLabels
	if itemType != "" {
		label := entityLabel(itemType)
		if !isTaggable(label) {
			return nil, types.NewError(types.CodeInvalidArgs, "items of type %q cannot be tagged", itemType)
		}
		labels = []string{label}
	}

	var out []*types.TaggedItem
	for _, label := range labels {
		var q string
		params := map[string]any{"tid": tagID}
		if label == "File" {
			q = `MATCH (item:File)-[:TAGGED_WITH]->(t:Tag {id: $tid})
				WHERE json_extract_string(item.metadata, '$.branch') = $branch
				RETURN item`
			params["branch"] = branch
		} else {
			q = `MATCH (item:` + label + `)-[:TAGGED_WITH]->(t:Tag {id: $tid})
				MATCH (item)-[:PART_OF]->(r:Repository {id: $rid})
				RETURN item`
			params["rid"] = types.RepositoryNodeID(repo, branch)
		}
		rows, err := t.h.ExecuteQuery(ctx, q, params)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			props := nodeProps(row["item"])
			if props == nil {
				continue
			}
			out = append(out, &types.TaggedItem{
				ID:         logicalID(asString(props["id"])),
				Type:       label,
				Properties: props,
			})
		}
	}
	return out, nil
}

func isTaggable(label string) bool {
	for _, l := range taggableLabels {
		if l == label {
			return true
		}
	}
	return false
}
