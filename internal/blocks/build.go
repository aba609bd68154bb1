package blocks

import (
	"fmt"

	"github.com/castlebay/notedown/internal/engine/schema"
)

// Build constructs an empty, grammar-valid block of the requested type.
// List and container types get the minimal child structure the grammar
// requires (one item holding one paragraph).
func Build(s *schema.Schema, t schema.NodeType, attrs map[string]any) (*schema.Node, error) {
	if !s.HasNode(t) || !s.IsBlock(t) {
		return nil, fmt.Errorf("cannot build block of type %q", t)
	}
	para := schema.NewNode(schema.NodeParagraph, nil)
	switch t {
	case schema.NodeParagraph, schema.NodeCodeBlock:
		return schema.NewNode(t, attrs), nil
	case schema.NodeHeading:
		return schema.NewNode(t, headingAttrs(attrs)), nil
	case schema.NodeBulletList, schema.NodeOrderedList:
		return schema.NewNode(t, attrs,
			schema.NewNode(schema.NodeListItem, nil, para)), nil
	case schema.NodeTaskList:
		return schema.NewNode(t, attrs,
			schema.NewNode(schema.NodeTaskItem, map[string]any{"checked": false}, para)), nil
	case schema.NodeToggleList:
		return schema.NewNode(t, attrs,
			schema.NewNode(schema.NodeToggleItem, map[string]any{"open": true}, para)), nil
	case schema.NodeBlockquote:
		return schema.NewNode(t, attrs, para), nil
	case schema.NodeCallout:
		if attrs == nil {
			attrs = map[string]any{"emoji": "💡"}
		}
		return schema.NewNode(t, attrs, para), nil
	case schema.NodeHorizontalRule, schema.NodeImage:
		return schema.NewNode(t, attrs), nil
	default:
		return nil, fmt.Errorf("cannot build block of type %q", t)
	}
}

// headingAttrs clamps the heading level to the supported 1..3 range.
func headingAttrs(attrs map[string]any) map[string]any {
	level := 1
	if attrs != nil {
		if l, ok := attrs["level"]; ok {
			switch v := l.(type) {
			case int:
				level = v
			case int64:
				level = int(v)
			case float64:
				level = int(v)
			}
		}
	}
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	out["level"] = level
	return out
}

// convert rebuilds node as type t, carrying its textual content over.
// Returns false when the combination is unsupported.
func convert(s *schema.Schema, node *schema.Node, t schema.NodeType, attrs map[string]any) (*schema.Node, bool) {
	if !s.HasNode(t) {
		return nil, false
	}

	// List to list keeps the item structure, remapping item types.
	if isList(node.Type) && isList(t) {
		items := make([]*schema.Node, 0, len(node.Children))
		for _, item := range node.Children {
			items = append(items, schema.NewNode(itemType(t), itemAttrs(t), item.Children...))
		}
		return schema.NewNode(t, attrs, items...), true
	}

	inline, ok := inlineContent(s, node)
	if !ok {
		return nil, false
	}

	switch t {
	case schema.NodeParagraph:
		return schema.NewNode(t, attrs, inline...), true
	case schema.NodeHeading:
		return schema.NewNode(t, headingAttrs(attrs), inline...), true
	case schema.NodeCodeBlock:
		// Code blocks hold plain text; marks are dropped.
		if text := node.TextContent(); text != "" {
			return schema.NewNode(t, attrs, schema.NewText(text)), true
		}
		return schema.NewNode(t, attrs), true
	case schema.NodeBulletList, schema.NodeOrderedList, schema.NodeTaskList, schema.NodeToggleList:
		para := schema.NewNode(schema.NodeParagraph, nil, inline...)
		return schema.NewNode(t, attrs, schema.NewNode(itemType(t), itemAttrs(t), para)), true
	case schema.NodeBlockquote:
		para := schema.NewNode(schema.NodeParagraph, nil, inline...)
		return schema.NewNode(t, attrs, para), true
	case schema.NodeCallout:
		if attrs == nil {
			attrs = map[string]any{"emoji": "💡"}
		}
		para := schema.NewNode(schema.NodeParagraph, nil, inline...)
		return schema.NewNode(t, attrs, para), true
	default:
		return nil, false
	}
}

// inlineContent extracts the inline children a conversion carries over.
// Textblocks yield their own content; single-paragraph wrappers yield
// the inner paragraph's content.
func inlineContent(s *schema.Schema, node *schema.Node) ([]*schema.Node, bool) {
	if s.IsTextblock(node.Type) {
		if node.Type == schema.NodeCodeBlock {
			// Re-entering rich text from plain text: one unmarked run.
			if text := node.TextContent(); text != "" {
				return []*schema.Node{schema.NewText(text)}, true
			}
			return nil, true
		}
		return node.Children, true
	}
	// Containers and single-item lists unwrap when one paragraph deep.
	inner := node
	for !s.IsTextblock(inner.Type) {
		if s.IsLeaf(inner.Type) || len(inner.Children) != 1 {
			return nil, false
		}
		inner = inner.Children[0]
	}
	if inner.Type != schema.NodeParagraph {
		return nil, false
	}
	return inner.Children, true
}

func isList(t schema.NodeType) bool {
	switch t {
	case schema.NodeBulletList, schema.NodeOrderedList, schema.NodeTaskList, schema.NodeToggleList:
		return true
	}
	return false
}

// itemType returns the item node type a list type contains.
func itemType(list schema.NodeType) schema.NodeType {
	switch list {
	case schema.NodeTaskList:
		return schema.NodeTaskItem
	case schema.NodeToggleList:
		return schema.NodeToggleItem
	default:
		return schema.NodeListItem
	}
}

// itemAttrs returns the default attributes for a list type's items.
func itemAttrs(list schema.NodeType) map[string]any {
	switch list {
	case schema.NodeTaskList:
		return map[string]any{"checked": false}
	case schema.NodeToggleList:
		return map[string]any{"open": true}
	default:
		return nil
	}
}

// cursorInto returns the cursor position for landing inside a freshly
// placed block starting at before. Leaf blocks place the cursor after
// themselves.
func cursorInto(s *schema.Schema, node *schema.Node, before int) int {
	pos, n := before, node
	for {
		if s.IsLeaf(n.Type) {
			return pos + n.Size()
		}
		pos++
		if s.IsTextblock(n.Type) || len(n.Children) == 0 {
			return pos
		}
		n = n.Children[0]
	}
}
