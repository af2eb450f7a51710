package utils

import (
	"strings"
	"testing"
)

func TestHashID(t *testing.T) {
	a := HashID("https://example.com/page")
	b := HashID("https://example.com/page")
	c := HashID("https://example.com/other")

	if a != b {
		t.Fatalf("HashID is not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("different inputs collided: %q", a)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %d (%q)", len(a), a)
	}
}

func TestBuildCorpusTree(t *testing.T) {
	tree := BuildCorpusTree(
		[]string{"alpha", "beta"},
		map[string][]string{
			"alpha": {"alpha#chunk0", "alpha#chunk1"},
			"beta":  {"beta#chunk0"},
		},
	)

	for _, want := range []string{"corpus", "alpha", "alpha#chunk1", "beta#chunk0"} {
		if !strings.Contains(tree, want) {
			t.Fatalf("tree missing %q:\n%s", want, tree)
		}
	}
	if strings.Index(tree, "alpha") > strings.Index(tree, "beta") {
		t.Fatalf("branch order should follow docIDs:\n%s", tree)
	}
}
