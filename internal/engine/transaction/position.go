package transaction

import (
	"github.com/castlebay/notedown/internal/engine/schema"
)

// pathStep records one level of a resolved position's ancestor chain.
type pathStep struct {
	node  *schema.Node
	index int // child index the position falls at or inside
	start int // absolute position of node's content start
}

// ResolvedPos is a position resolved against a concrete document,
// exposing the chain of ancestors it sits inside. Depth 0 is the
// document root.
type ResolvedPos struct {
	Pos  int
	path []pathStep

	// textNode is set when the position falls inside a text node;
	// textOffset is the rune offset within it.
	textNode   *schema.Node
	textOffset int
}

// Resolve locates pos inside doc. Positions are token offsets: entering
// or leaving a non-text node costs one token, each text rune one token.
func Resolve(doc *schema.Node, pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > doc.ContentSize() {
		return nil, ErrPosOutOfRange
	}
	rp := &ResolvedPos{Pos: pos}
	node := doc
	start := 0
	for {
		off := start
		idx := len(node.Children)
		var inside *schema.Node
		for i, c := range node.Children {
			if pos <= off {
				idx = i
				break
			}
			end := off + c.Size()
			if pos < end {
				idx = i
				inside = c
				break
			}
			off = end
		}
		rp.path = append(rp.path, pathStep{node: node, index: idx, start: start})
		if inside == nil {
			return rp, nil
		}
		if inside.IsText() {
			rp.textNode = inside
			rp.textOffset = pos - off
			return rp, nil
		}
		node = inside
		start = off + 1
	}
}

// Depth returns the resolution depth; 0 is the document root.
func (rp *ResolvedPos) Depth() int {
	return len(rp.path) - 1
}

// Node returns the ancestor node at the given depth.
func (rp *ResolvedPos) Node(depth int) *schema.Node {
	return rp.path[depth].node
}

// Index returns the child index at the given depth.
func (rp *ResolvedPos) Index(depth int) int {
	return rp.path[depth].index
}

// Parent returns the innermost node containing the position.
func (rp *ResolvedPos) Parent() *schema.Node {
	return rp.path[len(rp.path)-1].node
}

// ParentOffset returns the token offset within the innermost parent.
func (rp *ResolvedPos) ParentOffset() int {
	return rp.Pos - rp.path[len(rp.path)-1].start
}

// AtBoundary reports whether the position sits between children rather
// than inside a text node.
func (rp *ResolvedPos) AtBoundary() bool {
	return rp.textNode == nil
}

// Start returns the content start position of the ancestor at depth.
func (rp *ResolvedPos) Start(depth int) int {
	return rp.path[depth].start
}

// End returns the content end position of the ancestor at depth.
func (rp *ResolvedPos) End(depth int) int {
	return rp.path[depth].start + rp.path[depth].node.ContentSize()
}

// Before returns the position immediately before the ancestor at depth.
// Depth must be at least 1: the document root has no before position.
func (rp *ResolvedPos) Before(depth int) int {
	return rp.path[depth].start - 1
}

// After returns the position immediately after the ancestor at depth.
func (rp *ResolvedPos) After(depth int) int {
	return rp.path[depth].start - 1 + rp.path[depth].node.Size()
}

// NodeAt returns the node starting at the boundary position pos.
func NodeAt(doc *schema.Node, pos int) (*schema.Node, error) {
	rp, err := Resolve(doc, pos)
	if err != nil {
		return nil, err
	}
	parent := rp.Parent()
	idx := rp.Index(rp.Depth())
	if !rp.AtBoundary() || idx >= len(parent.Children) {
		return nil, ErrNoNodeAt
	}
	return parent.Children[idx], nil
}

// sameParent reports whether two resolved positions share the same
// innermost parent node.
func sameParent(a, b *ResolvedPos) bool {
	return a.Parent() == b.Parent() && a.Depth() == b.Depth()
}

// rebuild replaces the ancestor at the given path depth with newNode and
// rebuilds the ancestor chain up to a new document root.
func (rp *ResolvedPos) rebuild(depth int, newNode *schema.Node) *schema.Node {
	n := newNode
	for d := depth; d > 0; d-- {
		parent := rp.path[d-1].node.Clone()
		parent.Children[rp.path[d-1].index] = n
		n = parent
	}
	return n
}
