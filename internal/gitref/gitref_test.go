package gitref

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw   string
		ok    bool
		host  string
		owner string
		repo  string
		ref   string
	}{
		// Well-formed refs
		{"github:mark1russell7/client-core#main", true, "github", "mark1russell7", "client-core", "main"},
		{"gitlab:team/project#v1.2.3", true, "gitlab", "team", "project", "v1.2.3"},
		{"github:owner/repo#feature/deep/branch", true, "github", "owner", "repo", "feature/deep/branch"},
		{"github:owner/repo#", true, "github", "owner", "repo", ""},

		// Host is letters/digits only
		{"git-hub:owner/repo#main", false, "", "", "", ""},
		{"my.host:owner/repo#main", false, "", "", "", ""},

		// Missing pieces
		{"github:ownerrepo#main", false, "", "", "", ""},
		{"github:owner/repo", false, "", "", "", ""},
		{"owner/repo#main", false, "", "", "", ""},
		{"^1.2.3", false, "", "", "", ""},
		{"", false, "", "", "", ""},

		// Owner must not contain "/" — the first slash splits owner/repo,
		// so nested owners shift into the repo segment
		{"github:a/b/c#main", true, "github", "a", "b/c", "main"},
	}

	for _, tc := range tests {
		ref, ok := Parse(tc.raw)
		if ok != tc.ok {
			t.Errorf("Parse(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			continue
		}
		if !ok {
			if ref != nil {
				t.Errorf("Parse(%q) returned a ref for an invalid string", tc.raw)
			}
			continue
		}
		if ref.Host != tc.host || ref.Owner != tc.owner || ref.Repo != tc.repo || ref.Ref != tc.ref {
			t.Errorf("Parse(%q) = {%s %s %s %s}, want {%s %s %s %s}",
				tc.raw, ref.Host, ref.Owner, ref.Repo, ref.Ref, tc.host, tc.owner, tc.repo, tc.ref)
		}
		if ref.Raw != tc.raw {
			t.Errorf("Parse(%q) Raw = %q", tc.raw, ref.Raw)
		}
	}
}

func TestIsInternalRef(t *testing.T) {
	tests := []struct {
		dep      string
		owner    string
		expected bool
	}{
		{"github:mark1russell7/client-core#main", "mark1russell7", true},
		{"gitlab:mark1russell7/tools#dev", "mark1russell7", true},
		{"github:someone-else/lib#main", "mark1russell7", false},
		{"^1.2.3", "mark1russell7", false},
		{"workspace:*", "mark1russell7", false},
		{"", "mark1russell7", false},
		{"github:mark1russell7/x#main", "", false},

		// Owner is matched with a trailing slash, so a prefix-sharing owner
		// does not count
		{"github:mark1russell7-forks/lib#main", "mark1russell7", false},
	}

	for _, tc := range tests {
		if got := IsInternalRef(tc.dep, tc.owner); got != tc.expected {
			t.Errorf("IsInternalRef(%q, %q) = %v, want %v", tc.dep, tc.owner, got, tc.expected)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	raw := "github:mark1russell7/client-core#main"
	ref, ok := Parse(raw)
	if !ok {
		t.Fatalf("Parse(%q) failed", raw)
	}
	if got := Format(ref); got != raw {
		t.Errorf("Format(Parse(%q)) = %q", raw, got)
	}
}
