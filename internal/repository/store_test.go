package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/kuzumem/kuzumem-mcp/internal/database"
	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

// fakeStore records every statement so tests can pin the query protocol
// without a live engine. Transactions run the body against the same recorder.
type fakeStore struct {
	queries []string
	params  []map[string]any
}

func (f *fakeStore) ExecuteQuery(_ context.Context, cypher string, params map[string]any) ([]database.Row, error) {
	f.queries = append(f.queries, cypher)
	f.params = append(f.params, params)
	return nil, nil
}

func (f *fakeStore) Transaction(_ context.Context, fn func(tx executor) error) error {
	return fn(f)
}

func (f *fakeStore) joined() string {
	return strings.Join(f.queries, "\n---\n")
}

func TestComponentUpsertWithNilDependsOnLeavesFieldAndEdges(t *testing.T) {
	fake := &fakeStore{}
	comps := &Components{h: fake}

	_, err := comps.Upsert(t.Context(), "proj", "main", &types.Component{
		ID:     "comp-api",
		Name:   "API",
		Status: types.StatusDeprecated,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	all := fake.joined()
	if strings.Contains(all, "depends_on") {
		t.Errorf("nil DependsOn must not touch the depends_on field, got:\n%s", all)
	}
	if strings.Contains(all, "DELETE e") {
		t.Errorf("nil DependsOn must not rewrite DEPENDS_ON edges, got:\n%s", all)
	}
	for _, p := range fake.params {
		if _, ok := p["deps"]; ok {
			t.Errorf("nil DependsOn must not bind a deps parameter")
		}
	}
}

func TestComponentUpsertWithDependsOnRewritesFieldAndEdges(t *testing.T) {
	fake := &fakeStore{}
	comps := &Components{h: fake}

	_, err := comps.Upsert(t.Context(), "proj", "main", &types.Component{
		ID:        "comp-api",
		Name:      "API",
		DependsOn: []string{"comp-db"},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var sawSet, sawDelete, sawEdgeMerge bool
	for i, q := range fake.queries {
		if strings.Contains(q, "MERGE (comp:Component {id: $gid})") {
			if strings.Count(q, "comp.depends_on = $deps") != 2 {
				t.Errorf("depends_on must be set in both ON CREATE and ON MATCH, got:\n%s", q)
			}
			sawSet = true
		}
		if strings.Contains(q, "DELETE e") {
			sawDelete = true
		}
		if strings.Contains(q, "MERGE (comp)-[:DEPENDS_ON]->(dep)") {
			sawEdgeMerge = true
			if got := fake.params[i]["dgid"]; got != "proj:main:comp-db" {
				t.Errorf("dependency edge target = %v, want proj:main:comp-db", got)
			}
		}
	}
	if !sawSet || !sawDelete || !sawEdgeMerge {
		t.Errorf("missing upsert steps (set=%t delete=%t merge=%t):\n%s",
			sawSet, sawDelete, sawEdgeMerge, fake.joined())
	}
}

func TestComponentUpsertWithEmptyDependsOnClearsEdges(t *testing.T) {
	fake := &fakeStore{}
	comps := &Components{h: fake}

	_, err := comps.Upsert(t.Context(), "proj", "main", &types.Component{
		ID:        "comp-api",
		Name:      "API",
		DependsOn: []string{},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	all := fake.joined()
	if !strings.Contains(all, "comp.depends_on = $deps") {
		t.Errorf("empty DependsOn must store the empty list, got:\n%s", all)
	}
	if !strings.Contains(all, "DELETE e") {
		t.Errorf("empty DependsOn must drop existing edges, got:\n%s", all)
	}
	if strings.Contains(all, "MERGE (comp)-[:DEPENDS_ON]->(dep)") {
		t.Errorf("empty DependsOn must not merge new edges, got:\n%s", all)
	}
}

func TestFileBranchFiltersExtractStrings(t *testing.T) {
	const want = `json_extract_string(f.metadata, '$.branch')`

	t.Run("find", func(t *testing.T) {
		fake := &fakeStore{}
		files := &Files{h: fake}
		if _, err := files.Find(t.Context(), "file-a", "main"); err != nil {
			t.Fatalf("Find: %v", err)
		}
		if !strings.Contains(fake.joined(), want) {
			t.Errorf("Find query missing %s:\n%s", want, fake.joined())
		}
	})

	t.Run("find without branch", func(t *testing.T) {
		fake := &fakeStore{}
		files := &Files{h: fake}
		if _, err := files.Find(t.Context(), "file-a", ""); err != nil {
			t.Fatalf("Find: %v", err)
		}
		if strings.Contains(fake.joined(), "json_extract") {
			t.Errorf("empty branch must not filter on metadata:\n%s", fake.joined())
		}
	})

	t.Run("list", func(t *testing.T) {
		fake := &fakeStore{}
		files := &Files{h: fake}
		if _, err := files.List(t.Context(), "main"); err != nil {
			t.Fatalf("List: %v", err)
		}
		if !strings.Contains(fake.joined(), want) {
			t.Errorf("List query missing %s:\n%s", want, fake.joined())
		}
	})

	t.Run("find by component", func(t *testing.T) {
		fake := &fakeStore{}
		files := &Files{h: fake}
		if _, err := files.FindByComponent(t.Context(), "proj", "main", "comp-api"); err != nil {
			t.Fatalf("FindByComponent: %v", err)
		}
		if !strings.Contains(fake.joined(), want) {
			t.Errorf("FindByComponent query missing %s:\n%s", want, fake.joined())
		}
	})
}

func TestKeywordSearchFileArmExtractsBranchString(t *testing.T) {
	fake := &fakeStore{}
	s := &Searcher{h: fake}
	if _, err := s.Keyword(t.Context(), "proj", "main", "auth", "file", 5); err != nil {
		t.Fatalf("Keyword: %v", err)
	}
	if want := `json_extract_string(n.metadata, '$.branch')`; !strings.Contains(fake.joined(), want) {
		t.Errorf("file search arm missing %s:\n%s", want, fake.joined())
	}
}

func TestFindItemsByTagFileArmExtractsBranchString(t *testing.T) {
	fake := &fakeStore{}
	tags := &Tags{h: fake}
	if _, err := tags.FindItemsByTag(t.Context(), "proj", "main", "tag-core", "file"); err != nil {
		t.Fatalf("FindItemsByTag: %v", err)
	}
	if want := `json_extract_string(item.metadata, '$.branch')`; !strings.Contains(fake.joined(), want) {
		t.Errorf("file tag arm missing %s:\n%s", want, fake.joined())
	}
}
