package trigger

import (
	"github.com/castlebay/notedown/internal/blocks"
	"github.com/castlebay/notedown/internal/engine/schema"
)

// Builtin returns the standard block commands backed by the block
// command library. AI commands are registered separately by the layer
// that owns the suggestion session.
func Builtin(cmds *blocks.Commands) []Command {
	wrap := func(fn func() blocks.Result) func() error {
		return func() error {
			return fn().Error
		}
	}
	transform := func(t schema.NodeType, attrs map[string]any) func() error {
		return wrap(func() blocks.Result { return cmds.Transform(t, attrs) })
	}
	insert := func(t schema.NodeType, attrs map[string]any) func() error {
		return wrap(func() blocks.Result { return cmds.Insert(t, attrs) })
	}

	return []Command{
		{
			ID: "text", Title: "Text", Category: CategoryText,
			Description: "Plain paragraph text",
			Keywords:    []string{"paragraph", "plain"},
			Handler:     transform(schema.NodeParagraph, nil),
		},
		{
			ID: "heading-1", Title: "Heading 1", Category: CategoryText,
			Description: "Large section heading",
			Keywords:    []string{"h1", "title"},
			Handler:     transform(schema.NodeHeading, map[string]any{"level": 1}),
		},
		{
			ID: "heading-2", Title: "Heading 2", Category: CategoryText,
			Description: "Medium section heading",
			Keywords:    []string{"h2", "subtitle"},
			Handler:     transform(schema.NodeHeading, map[string]any{"level": 2}),
		},
		{
			ID: "heading-3", Title: "Heading 3", Category: CategoryText,
			Description: "Small section heading",
			Keywords:    []string{"h3", "subheading"},
			Handler:     transform(schema.NodeHeading, map[string]any{"level": 3}),
		},
		{
			ID: "bulleted-list", Title: "Bulleted List", Category: CategoryLists,
			Description: "Simple bulleted list",
			Keywords:    []string{"unordered", "ul", "bullet"},
			Handler:     transform(schema.NodeBulletList, nil),
		},
		{
			ID: "numbered-list", Title: "Numbered List", Category: CategoryLists,
			Description: "List with numbering",
			Keywords:    []string{"ordered", "ol", "numbers"},
			Handler:     transform(schema.NodeOrderedList, nil),
		},
		{
			ID: "todo-list", Title: "To-do List", Category: CategoryLists,
			Description: "Track tasks with checkboxes",
			Keywords:    []string{"task", "checkbox", "check"},
			Handler:     transform(schema.NodeTaskList, nil),
		},
		{
			ID: "toggle-list", Title: "Toggle List", Category: CategoryLists,
			Description: "Collapsible content list",
			Keywords:    []string{"collapse", "expand", "details"},
			Handler:     transform(schema.NodeToggleList, nil),
		},
		{
			ID: "quote", Title: "Quote", Category: CategoryBlocks,
			Description: "Capture a quotation",
			Keywords:    []string{"blockquote", "citation"},
			Handler:     transform(schema.NodeBlockquote, nil),
		},
		{
			ID: "code-block", Title: "Code Block", Category: CategoryBlocks,
			Description: "Code snippet with monospace text",
			Keywords:    []string{"code", "snippet", "pre"},
			Handler:     transform(schema.NodeCodeBlock, nil),
		},
		{
			ID: "callout", Title: "Callout", Category: CategoryBlocks,
			Description: "Emphasized note with an emoji",
			Keywords:    []string{"note", "banner", "aside"},
			Handler:     transform(schema.NodeCallout, nil),
		},
		{
			ID: "divider", Title: "Divider", Category: CategoryBlocks,
			Description: "Horizontal separator line",
			Keywords:    []string{"hr", "rule", "separator"},
			Handler:     insert(schema.NodeHorizontalRule, nil),
		},
		{
			ID: "image", Title: "Image", Category: CategoryBlocks,
			Description: "Embed an image by URL",
			Keywords:    []string{"picture", "photo", "embed"},
			Handler:     insert(schema.NodeImage, map[string]any{"src": "", "alt": ""}),
		},
	}
}
