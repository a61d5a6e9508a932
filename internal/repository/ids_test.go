package repository

import "testing"

func TestSanitizeIdentifier(t *testing.T) {
	cases := map[string]string{
		"DEPENDS_ON":          "DEPENDS_ON",
		"depends-on":          "dependson",
		"Component; DROP x;":  "ComponentDROPx",
		"'; MATCH (n) RETURN": "MATCHnRETURN",
		"!!!":                 "",
	}
	for in, want := range cases {
		if got := sanitizeIdentifier(in); got != want {
			t.Errorf("sanitizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRelTypeFilter(t *testing.T) {
	if got := relTypeFilter(nil, "DEPENDS_ON"); got != "DEPENDS_ON" {
		t.Errorf("empty input: got %q", got)
	}
	if got := relTypeFilter([]string{"DEPENDS_ON", "IMPLEMENTS"}, "X"); got != "DEPENDS_ON|IMPLEMENTS" {
		t.Errorf("join: got %q", got)
	}
	if got := relTypeFilter([]string{"!!!"}, "X"); got != "" {
		t.Errorf("fully sanitized away should be empty, got %q", got)
	}
}

func TestDirectionArrows(t *testing.T) {
	cases := []struct {
		dir         Direction
		left, right string
	}{
		{DirectionOutgoing, "-", "->"},
		{DirectionIncoming, "<-", "-"},
		{DirectionBoth, "-", "-"},
		{Direction(""), "-", "-"},
	}
	for _, tc := range cases {
		l, r := tc.dir.arrows()
		if l != tc.left || r != tc.right {
			t.Errorf("%s.arrows() = (%q, %q), want (%q, %q)", tc.dir, l, r, tc.left, tc.right)
		}
	}
}

func TestEntityLabel(t *testing.T) {
	if got := entityLabel("Component"); got != "Component" {
		t.Errorf("entityLabel(Component) = %q", got)
	}
	if got := entityLabel("decision"); got != "Decision" {
		t.Errorf("entityLabel(decision) = %q", got)
	}
	if got := entityLabel("widget"); got != "" {
		t.Errorf("entityLabel(widget) = %q, want empty", got)
	}
}

func TestLogicalID(t *testing.T) {
	if got := logicalID("repo:main:comp-a"); got != "comp-a" {
		t.Errorf("prefixed: got %q", got)
	}
	if got := logicalID("bare-file-id"); got != "bare-file-id" {
		t.Errorf("unprefixed: got %q", got)
	}
	if got := logicalID("r:b:id:with:colons"); got != "id:with:colons" {
		t.Errorf("colons in id: got %q", got)
	}
}

func TestClampDepth(t *testing.T) {
	// Zero or negative means unbounded and clamps to the ceiling.
	cases := map[int]int{-3: 10, 0: 10, 1: 1, 5: 5, 10: 10, 50: 10}
	for in, want := range cases {
		if got := clampDepth(in); got != want {
			t.Errorf("clampDepth(%d) = %d, want %d", in, got, want)
		}
	}
}
