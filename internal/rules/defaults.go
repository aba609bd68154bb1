package rules

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
)

// Rule priorities. Task markers share the "- " prefix with plain
// bullets: the paragraph-level task rule must outrank the bullet rule
// for single-event inserts, and the list upgrade rule finishes the job
// when the bullet rule already fired mid-typing.
const (
	prioTask    = 100
	prioBullet  = 90
	prioDefault = 50
)

// Defaults returns the standard markdown-style auto-format rules.
func Defaults() []Rule {
	return []Rule{
		NewBlockRule("heading", `^(#{1,3}) $`, prioDefault,
			func(m []string, inline []*schema.Node) *schema.Node {
				return schema.NewNode(schema.NodeHeading,
					map[string]any{"level": len(m[1])}, inline...)
			}),

		NewBlockRule("task-item", `^- \[([ x])\] $`, prioTask,
			func(m []string, inline []*schema.Node) *schema.Node {
				item := schema.NewNode(schema.NodeTaskItem,
					map[string]any{"checked": m[1] == "x"},
					schema.NewNode(schema.NodeParagraph, nil, inline...))
				return schema.NewNode(schema.NodeTaskList, nil, item)
			}),

		newListTaskRule(),

		NewBlockRule("bullet-item", `^[-*+] $`, prioBullet,
			func(m []string, inline []*schema.Node) *schema.Node {
				item := schema.NewNode(schema.NodeListItem, nil,
					schema.NewNode(schema.NodeParagraph, nil, inline...))
				return schema.NewNode(schema.NodeBulletList, nil, item)
			}),

		NewBlockRule("ordered-item", `^(\d{1,9})\. $`, prioDefault,
			func(m []string, inline []*schema.Node) *schema.Node {
				start, _ := strconv.Atoi(m[1])
				item := schema.NewNode(schema.NodeListItem, nil,
					schema.NewNode(schema.NodeParagraph, nil, inline...))
				return schema.NewNode(schema.NodeOrderedList,
					map[string]any{"start": start}, item)
			}),

		NewBlockRule("toggle-item", `^>> $`, prioDefault+10,
			func(m []string, inline []*schema.Node) *schema.Node {
				item := schema.NewNode(schema.NodeToggleItem,
					map[string]any{"open": true},
					schema.NewNode(schema.NodeParagraph, nil, inline...))
				return schema.NewNode(schema.NodeToggleList, nil, item)
			}),

		NewBlockRule("blockquote", `^> $`, prioDefault,
			func(m []string, inline []*schema.Node) *schema.Node {
				return schema.NewNode(schema.NodeBlockquote, nil,
					schema.NewNode(schema.NodeParagraph, nil, inline...))
			}),

		NewBlockRule("code-fence", "^```$", prioDefault,
			func(m []string, inline []*schema.Node) *schema.Node {
				return schema.NewNode(schema.NodeCodeBlock,
					map[string]any{"language": ""})
			}),

		NewBlockRule("horizontal-rule", `^---$`, prioDefault,
			func(m []string, inline []*schema.Node) *schema.Node {
				return schema.NewNode(schema.NodeHorizontalRule, nil)
			}),

		NewBlockRule("callout", `^!! $`, prioDefault,
			func(m []string, inline []*schema.Node) *schema.Node {
				return schema.NewNode(schema.NodeCallout,
					map[string]any{"emoji": "💡"},
					schema.NewNode(schema.NodeParagraph, nil, inline...))
			}),

		NewInlineRule("bold", `\*\*([^*\s](?:[^*]*[^*\s])?)\*\*$`,
			prioDefault+10, 2, schema.MarkBold),
		NewInlineRule("italic", `(?:^|[^*])\*([^*\s](?:[^*]*[^*\s])?)\*$`,
			prioDefault, 1, schema.MarkItalic),
		NewInlineRule("code", "`([^`]+)`$",
			prioDefault, 1, schema.MarkCode),
		NewInlineRule("strikethrough", `(?:^|[^~])~~([^~\s](?:[^~]*[^~\s])?)~~$`,
			prioDefault, 2, schema.MarkStrikethrough),
	}
}

// newListTaskRule upgrades a single-item bullet list to a task list
// when "[ ] " or "[x] " is typed at the start of the item's paragraph.
// Character-by-character typing of "- [ ] " converts to a bullet list
// on the "- " keystroke; this rule completes the task marker afterward.
func newListTaskRule() Rule {
	re := regexp.MustCompile(`^\[([ x])\] $`)
	return Rule{
		Name:     "list-task-item",
		Pattern:  re,
		Priority: prioTask,
		apply: func(e *Engine, ctx *matchContext) bool {
			depth := ctx.rp.Depth()
			if depth < 2 || ctx.rp.Index(depth) != 0 {
				return false
			}
			par := ctx.rp.Parent()
			if par.Type != schema.NodeParagraph {
				return false
			}
			item, list := ctx.rp.Node(depth-1), ctx.rp.Node(depth-2)
			if item.Type != schema.NodeListItem || list.Type != schema.NodeBulletList {
				return false
			}
			if len(list.Children) != 1 {
				return false
			}
			marker := utf8.RuneCountInString(ctx.match[0])
			inline := dropLeadingRunes(par.Children, marker)
			children := []*schema.Node{schema.NewNode(schema.NodeParagraph, nil, inline...)}
			children = append(children, item.Children[1:]...)
			task := schema.NewNode(schema.NodeTaskItem,
				map[string]any{"checked": ctx.match[1] == "x"}, children...)
			node := schema.NewNode(schema.NodeTaskList, nil, task)

			before, after := ctx.rp.Before(depth-2), ctx.rp.After(depth-2)
			tr := e.ed.Tx()
			if err := tr.ReplaceBlocks(before, after, node); err != nil {
				return false
			}
			tr.SetSelection(transaction.Cursor(contentStart(e.ed.Schema(), node, before)))
			return e.ed.Apply(tr) == nil
		},
	}
}
