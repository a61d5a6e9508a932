package types

import "testing"

func TestGraphIDRoundTrip(t *testing.T) {
	cases := []struct {
		repo, branch, id string
	}{
		{"repo", "main", "comp-AuthService"},
		{"my-app", "feature/x", "ctx"},
		{"r", "b", "id:with:colons"},
	}
	for _, tc := range cases {
		gid := GraphID(tc.repo, tc.branch, tc.id)
		repo, branch, id, err := ParseGraphID(gid)
		if err != nil {
			t.Fatalf("ParseGraphID(%q): %v", gid, err)
		}
		if repo != tc.repo || branch != tc.branch || id != tc.id {
			t.Errorf("ParseGraphID(%q) = (%q, %q, %q), want (%q, %q, %q)",
				gid, repo, branch, id, tc.repo, tc.branch, tc.id)
		}
		if GraphID(repo, branch, id) != gid {
			t.Errorf("round trip of %q produced %q", gid, GraphID(repo, branch, id))
		}
	}
}

func TestParseGraphIDRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "repo", "repo:branch", ":branch:id", "repo::id"} {
		if _, _, _, err := ParseGraphID(s); err == nil {
			t.Errorf("ParseGraphID(%q) succeeded, want error", s)
		}
	}
}

func TestRepositoryNodeID(t *testing.T) {
	if got := RepositoryNodeID("repo", "main"); got != "repo:main" {
		t.Errorf("RepositoryNodeID = %q, want repo:main", got)
	}
}
