package rules

import (
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
)

// Rule matches typed text at the cursor and rewrites the document when
// it fires. Block rules replace the paragraph with a new structure;
// inline rules rewrite a trailing span of text into marked text.
type Rule struct {
	// Name identifies the rule in logs.
	Name string

	// Pattern is matched against the text between the block's content
	// start and the cursor. Block rule patterns are anchored on both
	// ends; inline rule patterns on the end only.
	Pattern *regexp.Regexp

	// Priority orders evaluation; higher fires first. Rules whose
	// patterns overlap (task item and bullet item) rely on this.
	Priority int

	apply func(e *Engine, ctx *matchContext) bool
}

// matchContext carries the resolved state a firing rule operates on.
type matchContext struct {
	match []string
	rp    *transaction.ResolvedPos
	head  int
	start int // content start of the enclosing textblock
}

// Engine watches an editor for typed text and fires the first matching
// rule after each insertion. Attach it once; it reacts only to typing,
// never to programmatic or history transactions.
type Engine struct {
	ed      *engine.Editor
	rules   []Rule
	enabled bool
}

// NewEngine builds a rule engine over the given rules, ordered by
// priority. Pass Defaults() for the standard markdown-style set.
func NewEngine(ed *engine.Editor, rules []Rule) *Engine {
	rs := make([]Rule, len(rules))
	copy(rs, rules)
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Priority > rs[j].Priority })
	return &Engine{ed: ed, rules: rs, enabled: true}
}

// Attach registers the engine as an editor observer.
func (e *Engine) Attach() {
	e.ed.OnApply(func(ev engine.ApplyEvent) {
		if ev.TypedText == "" || ev.FromHistory || !e.enabled {
			return
		}
		e.check()
	})
}

// SetEnabled turns rule matching on or off.
func (e *Engine) SetEnabled(on bool) {
	e.enabled = on
}

// check runs the rule set against the text before the cursor.
func (e *Engine) check() {
	doc := e.ed.Doc()
	sel := e.ed.Selection()
	if !sel.Empty() {
		return
	}
	rp, err := transaction.Resolve(doc, sel.Head)
	if err != nil {
		return
	}
	s := e.ed.Schema()
	parent := rp.Parent()
	if !s.IsTextblock(parent.Type) {
		return
	}
	spec := s.Spec(parent.Type)
	if spec != nil && spec.PlainText {
		// No auto-formatting inside code blocks.
		return
	}

	depth := rp.Depth()
	ctx := &matchContext{rp: rp, head: sel.Head, start: rp.Start(depth)}
	text := doc.TextBetween(ctx.start, ctx.head)

	for i := range e.rules {
		r := &e.rules[i]
		m := r.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		ctx.match = m
		if r.apply(e, ctx) {
			e.ed.Logger().Debug("input rule fired", "rule", r.Name)
			return
		}
	}
}

// BlockBuilder constructs the replacement node for a block rule. inline
// holds the paragraph's content with the matched marker removed. A nil
// return cancels the rule.
type BlockBuilder func(match []string, inline []*schema.Node) *schema.Node

// NewBlockRule creates a rule that replaces the enclosing paragraph.
// Block rules fire only in paragraphs whose entire text before the
// cursor is the matched marker.
func NewBlockRule(name, pattern string, priority int, build BlockBuilder) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{
		Name:     name,
		Pattern:  re,
		Priority: priority,
		apply: func(e *Engine, ctx *matchContext) bool {
			parent := ctx.rp.Parent()
			if parent.Type != schema.NodeParagraph {
				return false
			}
			marker := utf8.RuneCountInString(ctx.match[0])
			inline := dropLeadingRunes(parent.Children, marker)
			node := build(ctx.match, inline)
			if node == nil {
				return false
			}
			depth := ctx.rp.Depth()
			before, after := ctx.rp.Before(depth), ctx.rp.After(depth)
			tr := e.ed.Tx()
			if err := tr.ReplaceBlocks(before, after, node); err != nil {
				return false
			}
			tr.SetSelection(transaction.Cursor(contentStart(e.ed.Schema(), node, before)))
			return e.ed.Apply(tr) == nil
		},
	}
}

// NewInlineRule creates a rule that converts a trailing marker-wrapped
// span into marked text. wrap is the marker's rune count on each side.
func NewInlineRule(name, pattern string, priority, wrap int, mark schema.MarkType) Rule {
	re := regexp.MustCompile(pattern)
	return Rule{
		Name:     name,
		Pattern:  re,
		Priority: priority,
		apply: func(e *Engine, ctx *matchContext) bool {
			content := ctx.match[1]
			consumed := utf8.RuneCountInString(content) + 2*wrap
			from := ctx.head - consumed
			if from < ctx.start {
				return false
			}
			tr := e.ed.Tx()
			run := schema.NewText(content, schema.Mark{Type: mark})
			if err := tr.ReplaceText(from, ctx.head, run); err != nil {
				return false
			}
			tr.SetSelection(transaction.Cursor(tr.Mapping().Map(ctx.head, -1)))
			return e.ed.Apply(tr) == nil
		},
	}
}

// dropLeadingRunes removes the first n runes of an inline run list,
// splitting a run when the cut falls inside it.
func dropLeadingRunes(runs []*schema.Node, n int) []*schema.Node {
	var out []*schema.Node
	for _, r := range runs {
		if n <= 0 {
			out = append(out, r)
			continue
		}
		if !r.IsText() {
			n--
			continue
		}
		rs := []rune(r.Text)
		if n >= len(rs) {
			n -= len(rs)
			continue
		}
		out = append(out, r.WithText(string(rs[n:])))
		n = 0
	}
	return out
}

// contentStart returns the cursor position at the start of the first
// textblock inside node; for leaf blocks, the position after the node.
func contentStart(s *schema.Schema, node *schema.Node, before int) int {
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
