package schema

import (
	"fmt"
	"strings"
)

// NodeType identifies a kind of document node.
type NodeType string

// Node types understood by the document schema.
const (
	NodeDoc            NodeType = "doc"
	NodeParagraph      NodeType = "paragraph"
	NodeHeading        NodeType = "heading"
	NodeBulletList     NodeType = "bullet-list"
	NodeOrderedList    NodeType = "ordered-list"
	NodeListItem       NodeType = "list-item"
	NodeTaskList       NodeType = "task-list"
	NodeTaskItem       NodeType = "task-item"
	NodeToggleList     NodeType = "toggle-list"
	NodeToggleItem     NodeType = "toggle-item"
	NodeBlockquote     NodeType = "blockquote"
	NodeCodeBlock      NodeType = "code-block"
	NodeCallout        NodeType = "callout"
	NodeHorizontalRule NodeType = "horizontal-rule"
	NodeImage          NodeType = "image"
	NodeText           NodeType = "text"
)

// MarkType identifies a kind of inline annotation.
type MarkType string

// Mark types understood by the document schema.
const (
	MarkBold          MarkType = "bold"
	MarkItalic        MarkType = "italic"
	MarkCode          MarkType = "code"
	MarkUnderline     MarkType = "underline"
	MarkStrikethrough MarkType = "strikethrough"
	MarkLink          MarkType = "link"
	MarkHighlight     MarkType = "highlight"

	// MarkSuggestion tags provisional AI-suggested text. It renders as
	// emphasis and is removed when the suggestion is accepted.
	MarkSuggestion MarkType = "suggestion"
)

// NodeSpec describes the shape of one node type.
type NodeSpec struct {
	// Content is the child-content expression: a space-separated list of
	// terms, each a node type or group name with an optional ?, * or +
	// quantifier (e.g. "paragraph block*", "inline*").
	Content string

	// Group is the group this node belongs to ("block" or "inline").
	Group string

	// Leaf marks nodes that never carry content (horizontal-rule, image).
	Leaf bool

	// PlainText forbids marks on text children (code blocks).
	PlainText bool
}

// Schema holds the node and mark vocabulary and validates documents
// against it.
type Schema struct {
	nodes map[NodeType]*NodeSpec
	marks map[MarkType]bool

	// compiled content matchers, one per node type
	matchers map[NodeType][]contentTerm
}

// contentTerm is one compiled term of a content expression.
type contentTerm struct {
	name     string // node type or group name
	min, max int    // max < 0 means unbounded
}

// Default returns the schema used by the editor. The node and mark
// vocabulary is fixed; this is the single source of truth for what
// content shapes are legal.
func Default() *Schema {
	s := &Schema{
		nodes: map[NodeType]*NodeSpec{
			NodeDoc:            {Content: "block+"},
			NodeParagraph:      {Content: "inline*", Group: "block"},
			NodeHeading:        {Content: "inline*", Group: "block"},
			NodeBulletList:     {Content: "list-item+", Group: "block"},
			NodeOrderedList:    {Content: "list-item+", Group: "block"},
			NodeListItem:       {Content: "paragraph block*"},
			NodeTaskList:       {Content: "task-item+", Group: "block"},
			NodeTaskItem:       {Content: "paragraph block*"},
			NodeToggleList:     {Content: "toggle-item+", Group: "block"},
			NodeToggleItem:     {Content: "paragraph block*"},
			NodeBlockquote:     {Content: "block+", Group: "block"},
			NodeCodeBlock:      {Content: "inline*", Group: "block", PlainText: true},
			NodeCallout:        {Content: "block+", Group: "block"},
			NodeHorizontalRule: {Group: "block", Leaf: true},
			NodeImage:          {Group: "block", Leaf: true},
			NodeText:           {Group: "inline"},
		},
		marks: map[MarkType]bool{
			MarkBold:          true,
			MarkItalic:        true,
			MarkCode:          true,
			MarkUnderline:     true,
			MarkStrikethrough: true,
			MarkLink:          true,
			MarkHighlight:     true,
			MarkSuggestion:    true,
		},
	}
	s.compile()
	return s
}

// compile parses every content expression into matcher terms.
func (s *Schema) compile() {
	s.matchers = make(map[NodeType][]contentTerm, len(s.nodes))
	for t, spec := range s.nodes {
		s.matchers[t] = parseContent(spec.Content)
	}
}

// parseContent parses a content expression into terms.
func parseContent(expr string) []contentTerm {
	if expr == "" {
		return nil
	}
	fields := strings.Fields(expr)
	terms := make([]contentTerm, 0, len(fields))
	for _, f := range fields {
		term := contentTerm{min: 1, max: 1}
		switch {
		case strings.HasSuffix(f, "*"):
			term.min, term.max = 0, -1
			f = strings.TrimSuffix(f, "*")
		case strings.HasSuffix(f, "+"):
			term.min, term.max = 1, -1
			f = strings.TrimSuffix(f, "+")
		case strings.HasSuffix(f, "?"):
			term.min, term.max = 0, 1
			f = strings.TrimSuffix(f, "?")
		}
		term.name = f
		terms = append(terms, term)
	}
	return terms
}

// HasNode reports whether the schema knows the node type.
func (s *Schema) HasNode(t NodeType) bool {
	_, ok := s.nodes[t]
	return ok
}

// HasMark reports whether the schema knows the mark type.
func (s *Schema) HasMark(t MarkType) bool {
	return s.marks[t]
}

// Spec returns the spec for a node type, or nil if unknown.
func (s *Schema) Spec(t NodeType) *NodeSpec {
	return s.nodes[t]
}

// IsBlock reports whether the node type is block-level.
func (s *Schema) IsBlock(t NodeType) bool {
	spec := s.nodes[t]
	return spec != nil && spec.Group == "block"
}

// IsInline reports whether the node type is inline.
func (s *Schema) IsInline(t NodeType) bool {
	spec := s.nodes[t]
	return spec != nil && spec.Group == "inline"
}

// IsTextblock reports whether the node type directly holds inline content.
func (s *Schema) IsTextblock(t NodeType) bool {
	spec := s.nodes[t]
	return spec != nil && strings.HasPrefix(spec.Content, "inline")
}

// IsLeaf reports whether the node type never carries content.
func (s *Schema) IsLeaf(t NodeType) bool {
	spec := s.nodes[t]
	return spec != nil && spec.Leaf
}

// matchesTerm reports whether a child node satisfies a content term.
func (s *Schema) matchesTerm(child *Node, term contentTerm) bool {
	if string(child.Type) == term.name {
		return true
	}
	spec := s.nodes[child.Type]
	return spec != nil && spec.Group == term.name
}

// CheckContent validates the direct children of a node against its
// content expression. It does not recurse.
func (s *Schema) CheckContent(n *Node) error {
	spec := s.nodes[n.Type]
	if spec == nil {
		return &ValidationError{Node: n.Type, Msg: "unknown node type"}
	}
	if n.Type == NodeText {
		if len(n.Children) != 0 {
			return &ValidationError{Node: n.Type, Msg: "text node cannot have children"}
		}
		return nil
	}
	if spec.Leaf {
		if len(n.Children) != 0 {
			return &ValidationError{Node: n.Type, Msg: "leaf node cannot have children"}
		}
		return nil
	}

	terms := s.matchers[n.Type]
	i := 0
	for _, term := range terms {
		count := 0
		for i < len(n.Children) && (term.max < 0 || count < term.max) && s.matchesTerm(n.Children[i], term) {
			i++
			count++
		}
		if count < term.min {
			return &ValidationError{
				Node: n.Type,
				Msg:  fmt.Sprintf("content does not satisfy %q", spec.Content),
			}
		}
	}
	if i != len(n.Children) {
		return &ValidationError{
			Node: n.Type,
			Msg:  fmt.Sprintf("unexpected %s child", n.Children[i].Type),
		}
	}
	return nil
}

// Validate checks a whole subtree: content grammar, mark legality and
// attribute well-formedness at every level.
func (s *Schema) Validate(n *Node) error {
	if err := s.CheckContent(n); err != nil {
		return err
	}
	spec := s.nodes[n.Type]
	for _, m := range n.Marks {
		if !s.marks[m.Type] {
			return &ValidationError{Node: n.Type, Msg: fmt.Sprintf("unknown mark %q", m.Type)}
		}
	}
	if n.Type != NodeText && len(n.Marks) != 0 {
		return &ValidationError{Node: n.Type, Msg: "marks are only valid on text nodes"}
	}
	for _, c := range n.Children {
		if spec.PlainText && c.Type == NodeText && len(c.Marks) != 0 {
			return &ValidationError{Node: n.Type, Msg: "plain-text node cannot contain marked text"}
		}
		if err := s.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// EmptyDocument returns the minimal valid document: one empty paragraph.
func (s *Schema) EmptyDocument() *Node {
	return NewNode(NodeDoc, nil, NewNode(NodeParagraph, nil))
}
