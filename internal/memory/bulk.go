package memory

import (
	"context"
	"fmt"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// Progress receives incremental status from long-running operations. Under
// stdio it only logs; under HTTP it feeds the session's event stream.
type Progress func(status, message string, percent float64, isFinal bool)

// noProgress is used when the caller passes nil.
func noProgress(string, string, float64, bool) {}

// BulkImportRequest carries one homogeneous batch. Exactly one of the item
// slices must be non-empty.
type BulkImportRequest struct {
	Components []*types.Component
	Decisions  []*types.Decision
	Rules      []*types.Rule
	Overwrite  bool
}

// BulkImportResult reports per-item outcomes.
type BulkImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// BulkImport upserts a batch of components, decisions, or rules, streaming
// progress as it goes. Existing entities are skipped unless Overwrite is
// set. Empty input is refused.
func (s *Service) BulkImport(ctx context.Context, root, repo, branch string, req *BulkImportRequest, progress Progress) (*BulkImportResult, error) {
	if progress == nil {
		progress = noProgress
	}
	total := len(req.Components) + len(req.Decisions) + len(req.Rules)
	if total == 0 {
		return nil, types.NewError(types.CodeInvalidArgs,
			"bulk-import requires at least one component, decision, or rule")
	}
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, annotate(err, "bulk-import", repo, branch)
	}

	res := &BulkImportResult{}
	done := 0
	step := func(kind, id string, exists bool, upsert func() error) {
		done++
		if exists && !req.Overwrite {
			res.Skipped++
		} else if err := upsert(); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s %s: %s", kind, id, err))
		} else {
			res.Imported++
		}
		progress("in-progress", fmt.Sprintf("imported %d of %d", done, total),
			float64(done)/float64(total)*100, false)
	}

	for _, comp := range req.Components {
		existing, err := st.components.FindByIDAndBranch(ctx, repo, comp.ID, branch)
		if err != nil {
			return nil, annotate(err, "bulk-import", repo, branch)
		}
		c := comp
		step("component", c.ID, existing != nil, func() error {
			_, err := st.components.Upsert(ctx, repo, branch, c)
			return err
		})
	}
	for _, dec := range req.Decisions {
		existing, err := st.decisions.Find(ctx, repo, branch, dec.ID)
		if err != nil {
			return nil, annotate(err, "bulk-import", repo, branch)
		}
		d := dec
		step("decision", d.ID, existing != nil, func() error {
			_, err := st.decisions.Upsert(ctx, repo, branch, d)
			return err
		})
	}
	for _, rule := range req.Rules {
		existing, err := st.rules.Find(ctx, repo, branch, rule.ID)
		if err != nil {
			return nil, annotate(err, "bulk-import", repo, branch)
		}
		r := rule
		step("rule", r.ID, existing != nil, func() error {
			_, err := st.rules.Upsert(ctx, repo, branch, r)
			return err
		})
	}

	progress("complete",
		fmt.Sprintf("imported %d, skipped %d, failed %d", res.Imported, res.Skipped, res.Failed),
		100, true)
	return res, nil
}

// SchemaInfo describes one node table and how many rows it holds.
type SchemaInfo struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Introspect lists the node tables present in the project's database with
// row counts for the requesting (repo, branch) scope where applicable.
func (s *Service) Introspect(ctx context.Context, root string) ([]*SchemaInfo, error) {
	st, err := s.stores(ctx, root)
	if err != nil {
		return nil, err
	}
	rows, err := st.handle.ExecuteQuery(ctx, "CALL show_tables() RETURN name, type;", nil)
	if err != nil {
		return nil, err
	}
	var out []*SchemaInfo
	for _, row := range rows {
		name, _ := row["name"].(string)
		typ, _ := row["type"].(string)
		if name == "" || typ != "NODE" {
			continue
		}
		countRows, err := st.handle.ExecuteQuery(ctx,
			fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS c", name), nil)
		if err != nil {
			return nil, err
		}
		var count int64
		if len(countRows) > 0 {
			switch c := countRows[0]["c"].(type) {
			case int64:
				count = c
			case float64:
				count = int64(c)
			}
		}
		out = append(out, &SchemaInfo{Label: name, Count: count})
	}
	return out, nil
}
