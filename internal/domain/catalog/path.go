package catalog

import (
	"fmt"
	"strings"
)

// MaxTreeDepth bounds how many segments a materialized path may carry.
const MaxTreeDepth = 10

// PathSeparator joins segments in the stored/rendered representation,
// e.g. "flowers.roses.red-roses".
const PathSeparator = "."

// TreePath is an immutable materialized path: the ordered slugs of a node's
// ancestry ending in the node's own segment. Repositioning a node means
// deriving a new TreePath, never mutating an existing one.
type TreePath struct {
	segments []string
}

// PathFromSlug builds a root path from a single segment.
func PathFromSlug(segment string) (TreePath, error) {
	s, err := NewSlug(segment)
	if err != nil {
		return TreePath{}, err
	}
	return TreePath{segments: []string{s.String()}}, nil
}

// PathFromParent derives the child path parent+segment.
func PathFromParent(parent TreePath, segment string) (TreePath, error) {
	s, err := NewSlug(segment)
	if err != nil {
		return TreePath{}, err
	}
	if parent.Depth()+1 > MaxTreeDepth {
		return TreePath{}, fmt.Errorf("%w: depth %d exceeds maximum %d", ErrDepthExceeded, parent.Depth()+1, MaxTreeDepth)
	}
	segs := make([]string, 0, parent.Depth()+1)
	segs = append(segs, parent.segments...)
	segs = append(segs, s.String())
	return TreePath{segments: segs}, nil
}

// ParsePath parses the dot-separated stored representation back into a
// TreePath, validating every segment.
func ParsePath(raw string) (TreePath, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TreePath{}, fmt.Errorf("%w: path is empty", ErrInvalidSegment)
	}
	parts := strings.Split(raw, PathSeparator)
	if len(parts) > MaxTreeDepth {
		return TreePath{}, fmt.Errorf("%w: depth %d exceeds maximum %d", ErrDepthExceeded, len(parts), MaxTreeDepth)
	}
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		s, err := NewSlug(p)
		if err != nil {
			return TreePath{}, err
		}
		segs = append(segs, s.String())
	}
	return TreePath{segments: segs}, nil
}

// Depth is the number of segments.
func (p TreePath) Depth() int { return len(p.segments) }

// IsZero reports whether the path carries no segments.
func (p TreePath) IsZero() bool { return len(p.segments) == 0 }

// Segments returns a copy of the segment sequence.
func (p TreePath) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Leaf returns the node's own segment (the last one).
func (p TreePath) Leaf() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// String renders the dot-separated representation used for storage and
// prefix-containment queries.
func (p TreePath) String() string {
	return strings.Join(p.segments, PathSeparator)
}

// IsAncestorOf reports whether other is strictly below p in the tree.
func (p TreePath) IsAncestorOf(other TreePath) bool {
	if len(p.segments) == 0 || len(other.segments) <= len(p.segments) {
		return false
	}
	return p.isPrefixOf(other)
}

// IsSelfOrAncestorOf is the containment variant used by visibility checks.
func (p TreePath) IsSelfOrAncestorOf(other TreePath) bool {
	if len(p.segments) == 0 || len(other.segments) < len(p.segments) {
		return false
	}
	return p.isPrefixOf(other)
}

// IsDescendantOf reports whether p is strictly below other.
func (p TreePath) IsDescendantOf(other TreePath) bool {
	return other.IsAncestorOf(p)
}

func (p TreePath) isPrefixOf(other TreePath) bool {
	for i, seg := range p.segments {
		if other.segments[i] != seg {
			return false
		}
	}
	return true
}
