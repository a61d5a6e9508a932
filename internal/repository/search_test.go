package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/kuzumem/kuzumem-mcp/internal/types"
)

func TestKeywordRejectsEmptyQuery(t *testing.T) {
	s := NewSearcher(nil)
	_, err := s.Keyword(context.Background(), "repo", "main", "", "", 0)
	if !types.HasCode(err, types.CodeInvalidArgs) {
		t.Errorf("got %v, want INVALID_ARGS", err)
	}
}

func TestKeywordRejectsUnsearchableType(t *testing.T) {
	s := NewSearcher(nil)
	_, err := s.Keyword(context.Background(), "repo", "main", "auth", "tag", 0)
	if !types.HasCode(err, types.CodeInvalidArgs) {
		t.Errorf("got %v, want INVALID_ARGS", err)
	}
}

func TestSemanticPlaceholder(t *testing.T) {
	s := NewSearcher(nil)
	hits := s.Semantic(context.Background(), "auth flow")
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Type != "placeholder" {
		t.Errorf("hit type = %q", hits[0].Type)
	}
	if !strings.Contains(hits[0].Message, "auth flow") {
		t.Errorf("message does not echo the query: %q", hits[0].Message)
	}
}
