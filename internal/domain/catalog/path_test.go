package catalog

import (
	"errors"
	"strings"
	"testing"
)

func mustPath(t *testing.T, raw string) TreePath {
	t.Helper()
	p, err := ParsePath(raw)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", raw, err)
	}
	return p
}

func TestPathFromParent_BuildsChildPath(t *testing.T) {
	root, err := PathFromSlug("flowers")
	if err != nil {
		t.Fatalf("PathFromSlug: %v", err)
	}
	child, err := PathFromParent(root, "roses")
	if err != nil {
		t.Fatalf("PathFromParent: %v", err)
	}
	if got := child.String(); got != "flowers.roses" {
		t.Fatalf("expected flowers.roses got %q", got)
	}
	if child.Depth() != 2 {
		t.Fatalf("expected depth 2 got %d", child.Depth())
	}
	if child.Leaf() != "roses" {
		t.Fatalf("expected leaf roses got %q", child.Leaf())
	}
}

func TestPathFromParent_RejectsDepthOverflow(t *testing.T) {
	p, err := PathFromSlug("d1")
	if err != nil {
		t.Fatalf("PathFromSlug: %v", err)
	}
	for i := 2; i <= MaxTreeDepth; i++ {
		p, err = PathFromParent(p, "d"+strings.Repeat("x", i))
		if err != nil {
			t.Fatalf("depth %d should be allowed: %v", i, err)
		}
	}
	if p.Depth() != MaxTreeDepth {
		t.Fatalf("expected depth %d got %d", MaxTreeDepth, p.Depth())
	}
	if _, err := PathFromParent(p, "overflow"); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded got %v", err)
	}
}

func TestParsePath_RoundTrip(t *testing.T) {
	cases := []string{
		"flowers",
		"flowers.roses",
		"flowers.roses.red-roses",
	}
	for _, raw := range cases {
		p := mustPath(t, raw)
		if p.String() != raw {
			t.Fatalf("round trip mismatch: %q vs %q", raw, p.String())
		}
	}
}

func TestParsePath_RejectsBadInput(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"", ErrInvalidSegment},
		{"flowers..roses", ErrInvalidSegment},
		{"Flo wers", ErrInvalidSegment},
		{"-leading", ErrInvalidSegment},
		{strings.TrimSuffix(strings.Repeat("a.", MaxTreeDepth+1), "."), ErrDepthExceeded},
	}
	for _, tc := range cases {
		if _, err := ParsePath(tc.raw); !errors.Is(err, tc.want) {
			t.Fatalf("ParsePath(%q): expected %v got %v", tc.raw, tc.want, err)
		}
	}
}

func TestTreePath_AncestorPredicates(t *testing.T) {
	flowers := mustPath(t, "flowers")
	roses := mustPath(t, "flowers.roses")
	red := mustPath(t, "flowers.roses.red-roses")
	tools := mustPath(t, "tools")

	if !flowers.IsAncestorOf(roses) || !flowers.IsAncestorOf(red) {
		t.Fatalf("flowers should be ancestor of its subtree")
	}
	if flowers.IsAncestorOf(flowers) {
		t.Fatalf("a path is not its own strict ancestor")
	}
	if !flowers.IsSelfOrAncestorOf(flowers) {
		t.Fatalf("self containment should hold")
	}
	if flowers.IsAncestorOf(tools) || tools.IsAncestorOf(roses) {
		t.Fatalf("unrelated paths must not be ancestors")
	}
	if !red.IsDescendantOf(flowers) {
		t.Fatalf("red-roses should descend from flowers")
	}
	if roses.IsDescendantOf(red) {
		t.Fatalf("descendant relation inverted")
	}
}

func TestTreePath_SegmentsIsACopy(t *testing.T) {
	p := mustPath(t, "flowers.roses")
	segs := p.Segments()
	segs[0] = "mutated"
	if p.String() != "flowers.roses" {
		t.Fatalf("mutating the returned slice must not change the path")
	}
}
