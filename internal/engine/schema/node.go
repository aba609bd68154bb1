package schema

import (
	"strings"
	"unicode/utf8"
)

// Mark is an inline annotation attached to a run of text.
type Mark struct {
	Type  MarkType
	Attrs map[string]any
}

// Eq reports whether two marks are identical.
func (m Mark) Eq(o Mark) bool {
	return m.Type == o.Type && attrsEq(m.Attrs, o.Attrs)
}

// MarksEq reports whether two mark sets are identical (order-sensitive).
func MarksEq(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

// ContainsMark reports whether the set contains a mark of the given type.
func ContainsMark(marks []Mark, t MarkType) bool {
	for _, m := range marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// AddMark returns the mark set with m added (replacing any existing mark
// of the same type). The input slice is not modified.
func AddMark(marks []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	for _, x := range marks {
		if x.Type != m.Type {
			out = append(out, x)
		}
	}
	return append(out, m)
}

// RemoveMark returns the mark set without marks of the given type.
func RemoveMark(marks []Mark, t MarkType) []Mark {
	out := make([]Mark, 0, len(marks))
	for _, x := range marks {
		if x.Type != t {
			out = append(out, x)
		}
	}
	return out
}

// Node is a typed element of the document tree. Nodes are treated as
// immutable: mutations build new nodes and new ancestor chains, so a
// document value can be shared freely across snapshots.
type Node struct {
	Type     NodeType
	Attrs    map[string]any
	Children []*Node

	// Text and Marks are populated on text nodes only.
	Text  string
	Marks []Mark
}

// NewNode builds a non-text node.
func NewNode(t NodeType, attrs map[string]any, children ...*Node) *Node {
	return &Node{Type: t, Attrs: attrs, Children: children}
}

// NewText builds a text node.
func NewText(text string, marks ...Mark) *Node {
	return &Node{Type: NodeText, Text: text, Marks: marks}
}

// IsText reports whether the node is a text node.
func (n *Node) IsText() bool {
	return n.Type == NodeText
}

// Size returns the token size of the node: one token for entering and one
// for leaving a non-text node, one token per rune of text.
func (n *Node) Size() int {
	if n.IsText() {
		return utf8.RuneCountInString(n.Text)
	}
	return 2 + n.ContentSize()
}

// ContentSize returns the combined token size of the node's children.
func (n *Node) ContentSize() int {
	size := 0
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

// Clone returns a shallow copy with its own children slice. Attrs and
// marks are shared; callers replacing them must allocate new maps.
func (n *Node) Clone() *Node {
	out := *n
	out.Children = append([]*Node(nil), n.Children...)
	return &out
}

// WithChildren returns a copy of the node with the given children.
func (n *Node) WithChildren(children ...*Node) *Node {
	out := *n
	out.Children = children
	return &out
}

// WithAttrs returns a copy of the node with the given attributes.
func (n *Node) WithAttrs(attrs map[string]any) *Node {
	out := *n
	out.Attrs = attrs
	return &out
}

// WithText returns a copy of a text node with new text.
func (n *Node) WithText(text string) *Node {
	out := *n
	out.Text = text
	return &out
}

// WithMarks returns a copy of a text node with a new mark set.
func (n *Node) WithMarks(marks []Mark) *Node {
	out := *n
	out.Marks = marks
	return &out
}

// TextContent returns the concatenated text of the subtree.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// TextBetween returns the text covered by the token range [from, to)
// relative to this node as root. Node boundary tokens contribute no
// characters.
func (n *Node) TextBetween(from, to int) string {
	var b strings.Builder
	collectText(n, 0, from, to, &b)
	return b.String()
}

func collectText(n *Node, start, from, to int, b *strings.Builder) {
	off := start
	for _, c := range n.Children {
		end := off + c.Size()
		if end > from && off < to {
			if c.IsText() {
				runes := []rune(c.Text)
				lo := from - off
				if lo < 0 {
					lo = 0
				}
				hi := to - off
				if hi > len(runes) {
					hi = len(runes)
				}
				b.WriteString(string(runes[lo:hi]))
			} else {
				collectText(c, off+1, from, to, b)
			}
		}
		off = end
	}
}

// Eq reports deep structural equality.
func (n *Node) Eq(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	if n.Type != o.Type || n.Text != o.Text {
		return false
	}
	if !attrsEq(n.Attrs, o.Attrs) || !MarksEq(n.Marks, o.Marks) {
		return false
	}
	if len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Eq(o.Children[i]) {
			return false
		}
	}
	return true
}

// IntAttr reads an integer attribute with a default.
func (n *Node) IntAttr(name string, def int) int {
	switch v := n.Attrs[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// BoolAttr reads a boolean attribute with a default.
func (n *Node) BoolAttr(name string, def bool) bool {
	if v, ok := n.Attrs[name].(bool); ok {
		return v
	}
	return def
}

// StringAttr reads a string attribute with a default.
func (n *Node) StringAttr(name string, def string) string {
	if v, ok := n.Attrs[name].(string); ok {
		return v
	}
	return def
}

// attrsEq compares attribute maps by normalized value.
func attrsEq(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || normAttr(av) != normAttr(bv) {
			return false
		}
	}
	return true
}

// normAttr folds numeric attribute representations together so that a
// decoded document compares equal to the one that produced it.
func normAttr(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	default:
		return v
	}
}
