package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"

	"github.com/castlebay/notedown/internal/engine/schema"
)

// FromStructured converts a structured generation payload into block
// nodes. The payload is a JSON object whose "blocks" array holds one
// entry per block:
//
//	{"blocks": [
//	  {"kind": "heading", "level": 2, "text": "Plan"},
//	  {"kind": "task-list", "items": [{"text": "pack", "checked": false}]},
//	  {"kind": "code-block", "language": "go", "text": "x := 1"}
//	]}
//
// Malformed entries degrade to plain paragraphs instead of failing the
// whole payload; each degradation is reported in warnings.
func FromStructured(s *schema.Schema, payload string, logger *slog.Logger) ([]*schema.Node, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	var warnings []string
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		warnings = append(warnings, msg)
		logger.Warn("structured payload degraded", "reason", msg)
	}

	if !gjson.Valid(payload) {
		warn("payload is not valid JSON")
		return []*schema.Node{textParagraph(payload)}, warnings
	}
	blocks := gjson.Get(payload, "blocks")
	if !blocks.IsArray() {
		warn("payload has no blocks array")
		return []*schema.Node{textParagraph(payload)}, warnings
	}

	var out []*schema.Node
	blocks.ForEach(func(i, b gjson.Result) bool {
		node := decodeBlock(b, warn)
		if node != nil {
			if err := s.Validate(wrapDoc(node)); err != nil {
				warn("block %d invalid: %v", int(i.Int()), err)
				node = textParagraph(b.Get("text").String())
			}
			out = append(out, node)
		}
		return true
	})
	if len(out) == 0 {
		out = append(out, schema.NewNode(schema.NodeParagraph, nil))
	}
	return out, warnings
}

// decodeBlock converts one payload entry. Unknown kinds fall back to a
// paragraph carrying the entry's text.
func decodeBlock(b gjson.Result, warn func(string, ...any)) *schema.Node {
	kind := b.Get("kind").String()
	text := b.Get("text").String()

	switch kind {
	case "paragraph":
		return textParagraph(text)
	case "heading":
		level := int(b.Get("level").Int())
		if level < 1 || level > 3 {
			warn("heading level %d clamped", level)
			if level < 1 {
				level = 1
			} else {
				level = 3
			}
		}
		return schema.NewNode(schema.NodeHeading, map[string]any{"level": level}, inlineRuns(text)...)
	case "bullet-list", "ordered-list":
		t := schema.NodeBulletList
		if kind == "ordered-list" {
			t = schema.NodeOrderedList
		}
		items := decodeItems(b, schema.NodeListItem, nil)
		if items == nil {
			warn("%s has no items", kind)
			return textParagraph(text)
		}
		return schema.NewNode(t, nil, items...)
	case "task-list":
		items := decodeItems(b, schema.NodeTaskItem, func(item gjson.Result) map[string]any {
			return map[string]any{"checked": item.Get("checked").Bool()}
		})
		if items == nil {
			warn("task-list has no items")
			return textParagraph(text)
		}
		return schema.NewNode(schema.NodeTaskList, nil, items...)
	case "blockquote":
		return schema.NewNode(schema.NodeBlockquote, nil, textParagraph(text))
	case "code-block":
		attrs := map[string]any{"language": b.Get("language").String()}
		if text == "" {
			return schema.NewNode(schema.NodeCodeBlock, attrs)
		}
		return schema.NewNode(schema.NodeCodeBlock, attrs, schema.NewText(text))
	case "divider":
		return schema.NewNode(schema.NodeHorizontalRule, nil)
	case "":
		warn("block has no kind")
		return textParagraph(text)
	default:
		warn("unknown block kind %q", kind)
		return textParagraph(text)
	}
}

// decodeItems reads an entry's items array into list item nodes.
func decodeItems(b gjson.Result, t schema.NodeType, attrs func(gjson.Result) map[string]any) []*schema.Node {
	items := b.Get("items")
	if !items.IsArray() {
		return nil
	}
	var out []*schema.Node
	items.ForEach(func(_, item gjson.Result) bool {
		var a map[string]any
		if attrs != nil {
			a = attrs(item)
		}
		para := textParagraph(item.Get("text").String())
		out = append(out, schema.NewNode(t, a, para))
		return true
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

func textParagraph(text string) *schema.Node {
	return schema.NewNode(schema.NodeParagraph, nil, inlineRuns(text)...)
}

func wrapDoc(n *schema.Node) *schema.Node {
	return schema.NewNode(schema.NodeDoc, nil, n)
}
