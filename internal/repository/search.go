package repository

import (
	"context"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// defaultSearchLimit caps keyword result sets when the caller passes none.
const defaultSearchLimit = 20

// SearchHit is one match from either search mode.
type SearchHit struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Name    string  `json:"name,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Searcher implements the keyword and semantic search modes.
type Searcher struct {
	h executor
}

// NewSearcher returns an accessor bound to the handle.
func NewSearcher(h *database.Handle) *Searcher {
	return &Searcher{h: h}
}

// searchableFields maps labels to the text properties keyword search scans.
var searchableFields = map[string][]string{
	"Component": {"name", "kind"},
	"Decision":  {"name", "context"},
	"Rule":      {"name", "content"},
	"Context":   {"name", "summary"},
	"File":      {"name", "path"},
}

// Keyword performs a case-insensitive CONTAINS match over the text
// properties of every entity label (or just the one named by entityType).
func (s *Searcher) Keyword(ctx context.Context, repo, branch, query, entityType string, limit int) ([]*SearchHit, error) {
	if query == "" {
		return nil, types.NewError(types.CodeInvalidArgs, "search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	labels := []string{"Component", "Decision", "Rule", "Context", "File"}
	if entityType != "" {
		label := entityLabel(entityType)
		if _, ok := searchableFields[label]; !ok {
			return nil, types.NewError(types.CodeInvalidArgs, "cannot search entities of type %q", entityType)
		}
		labels = []string{label}
	}

	var hits []*SearchHit
	for _, label := range labels {
		if len(hits) >= limit {
			break
		}
		fields := searchableFields[label]
		where := ""
		for i, f := range fields {
			if i > 0 {
				where += " OR "
			}
			where += "lower(n." + f + ") CONTAINS lower($q)"
		}
		var q string
		params := map[string]any{"q": query, "limit": int64(limit - len(hits))}
		if label == "File" {
			q = `MATCH (n:File) WHERE (` + where + `)
				AND json_extract_string(n.metadata, '$.branch') = $branch
				RETURN n LIMIT $limit`
			params["branch"] = branch
		} else {
			q = `MATCH (n:` + label + `)-[:PART_OF]->(r:Repository {id: $rid})
				WHERE ` + where + `
				RETURN n LIMIT $limit`
			params["rid"] = types.RepositoryNodeID(repo, branch)
		}
		rows, err := s.h.ExecuteQuery(ctx, q, params)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			props := nodeProps(row["n"])
			if props == nil {
				continue
			}
			snippet := ""
			for _, f := range fields[1:] {
				if v := asString(props[f]); v != "" {
					snippet = v
					break
				}
			}
			hits = append(hits, &SearchHit{
				ID:      logicalID(asString(props["id"])),
				Type:    label,
				Name:    asString(props["name"]),
				Snippet: snippet,
			})
		}
	}
	return hits, nil
}

// Semantic is a declared placeholder until a vector store is wired in. It
// returns a single hit carrying an explanatory message and never errors.
func (s *Searcher) Semantic(_ context.Context, query string) []*SearchHit {
	return []*SearchHit{{
		Type:    "placeholder",
		Message: "semantic search is not yet available; no vector index is configured. Query was: " + query,
	}}
}
