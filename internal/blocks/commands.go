package blocks

import (
	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
)

// Commands exposes the block-level operations of the editor. Every
// command operates on the block containing the selection, found by
// walking selection ancestors outward until a block-level node is hit.
type Commands struct {
	ed *engine.Editor
}

// New binds the command library to an editor.
func New(ed *engine.Editor) *Commands {
	return &Commands{ed: ed}
}

// blockInfo describes the located target block.
type blockInfo struct {
	node   *schema.Node
	parent *schema.Node
	index  int
	before int // position immediately before the block
	after  int // position immediately after the block
	depth  int // path depth in rp; 0 when located via doc boundary
	rp     *transaction.ResolvedPos
}

// currentBlock locates the block containing the selection head.
func (c *Commands) currentBlock() (*blockInfo, error) {
	doc := c.ed.Doc()
	sel := c.ed.Selection()
	rp, err := transaction.Resolve(doc, sel.Head)
	if err != nil {
		return nil, err
	}
	s := c.ed.Schema()
	for d := rp.Depth(); d >= 1; d-- {
		if s.IsBlock(rp.Node(d).Type) {
			return &blockInfo{
				node:   rp.Node(d),
				parent: rp.Node(d - 1),
				index:  rp.Index(d - 1),
				before: rp.Before(d),
				after:  rp.After(d),
				depth:  d,
				rp:     rp,
			}, nil
		}
	}
	// Selection sits at a top-level boundary: take the adjacent child.
	idx := rp.Index(0)
	if idx >= len(doc.Children) {
		idx = len(doc.Children) - 1
	}
	if idx < 0 {
		return nil, transaction.ErrNoNodeAt
	}
	before := 0
	for i := 0; i < idx; i++ {
		before += doc.Children[i].Size()
	}
	return &blockInfo{
		node:   doc.Children[idx],
		parent: doc,
		index:  idx,
		before: before,
		after:  before + doc.Children[idx].Size(),
		rp:     rp,
	}, nil
}

// Insert places a new block of the requested type at the selection. An
// empty paragraph under the cursor is replaced; otherwise the block is
// inserted after the current one. The cursor lands inside the first
// child paragraph of container blocks.
func (c *Commands) Insert(t schema.NodeType, attrs map[string]any) Result {
	s := c.ed.Schema()
	node, err := Build(s, t, attrs)
	if err != nil {
		return NoOpWithMessage(err.Error())
	}
	info, err := c.currentBlock()
	if err != nil {
		return NoOp()
	}

	tr := c.ed.Tx()
	at := info.after
	if info.node.Type == schema.NodeParagraph && info.node.TextContent() == "" {
		if err := tr.ReplaceBlocks(info.before, info.after, node); err != nil {
			return Error(err)
		}
		at = info.before
	} else {
		if err := tr.ReplaceBlocks(info.after, info.after, node); err != nil {
			return Error(err)
		}
	}
	tr.SetSelection(transaction.Cursor(cursorInto(s, node, at)))
	if err := c.ed.Apply(tr); err != nil {
		return Error(err)
	}
	return Success()
}

// Transform changes the current block's type in place when the grammar
// allows the conversion. Unsupported combinations do nothing.
func (c *Commands) Transform(t schema.NodeType, attrs map[string]any) Result {
	info, err := c.currentBlock()
	if err != nil {
		return NoOp()
	}
	// Converting to a list type from inside a list remaps the whole
	// list instead of nesting a new one.
	if isList(t) {
		for d := info.depth; d >= 1; d-- {
			if isList(info.rp.Node(d).Type) {
				info = &blockInfo{
					node:   info.rp.Node(d),
					parent: info.rp.Node(d - 1),
					index:  info.rp.Index(d - 1),
					before: info.rp.Before(d),
					after:  info.rp.After(d),
					depth:  d,
					rp:     info.rp,
				}
				break
			}
		}
	}
	if info.node.Type == t {
		return NoOp()
	}
	s := c.ed.Schema()
	node, ok := convert(s, info.node, t, attrs)
	if !ok {
		return NoOp()
	}

	tr := c.ed.Tx()
	if err := tr.ReplaceBlocks(info.before, info.after, node); err != nil {
		return NoOp()
	}
	tr.SetSelection(transaction.Cursor(cursorInto(s, node, info.before)))
	if err := c.ed.Apply(tr); err != nil {
		return Error(err)
	}
	return Success()
}

// MoveUp swaps the current block with its preceding sibling. Reports a
// no-op when the block is already first.
func (c *Commands) MoveUp() Result {
	info, err := c.currentBlock()
	if err != nil {
		return NoOp()
	}
	if info.index == 0 {
		return NoOp()
	}
	prev := info.parent.Children[info.index-1]
	from := info.before - prev.Size()

	tr := c.ed.Tx()
	if err := tr.ReplaceBlocks(from, info.after, info.node, prev); err != nil {
		return Error(err)
	}
	head := c.ed.Selection().Head - prev.Size()
	tr.SetSelection(transaction.Cursor(head))
	if err := c.ed.Apply(tr); err != nil {
		return Error(err)
	}
	return Success()
}

// MoveDown swaps the current block with its following sibling. Reports
// a no-op when the block is already last.
func (c *Commands) MoveDown() Result {
	info, err := c.currentBlock()
	if err != nil {
		return NoOp()
	}
	if info.index >= len(info.parent.Children)-1 {
		return NoOp()
	}
	next := info.parent.Children[info.index+1]

	tr := c.ed.Tx()
	if err := tr.ReplaceBlocks(info.before, info.after+next.Size(), next, info.node); err != nil {
		return Error(err)
	}
	head := c.ed.Selection().Head + next.Size()
	tr.SetSelection(transaction.Cursor(head))
	if err := c.ed.Apply(tr); err != nil {
		return Error(err)
	}
	return Success()
}

// Duplicate inserts a structural copy of the current block immediately
// after it and moves the cursor into the copy.
func (c *Commands) Duplicate() Result {
	info, err := c.currentBlock()
	if err != nil {
		return NoOp()
	}

	tr := c.ed.Tx()
	// Nodes are immutable, so the copy can share the subtree.
	if err := tr.ReplaceBlocks(info.after, info.after, info.node); err != nil {
		return Error(err)
	}
	head := c.ed.Selection().Head + info.node.Size()
	tr.SetSelection(transaction.Cursor(head))
	if err := c.ed.Apply(tr); err != nil {
		return Error(err)
	}
	return Success()
}

// Delete removes the block containing the selection. When the block's
// removal would break its parent's grammar the deletion climbs to the
// enclosing block. The document always keeps at least one block: the
// last top-level block is cleared, not removed.
func (c *Commands) Delete() Result {
	info, err := c.currentBlock()
	if err != nil {
		return NoOp()
	}
	doc := c.ed.Doc()

	type span struct {
		before, after int
		node, parent  *schema.Node
	}
	var spans []span
	if info.depth == 0 {
		spans = []span{{info.before, info.after, info.node, doc}}
	} else {
		for d := info.depth; d >= 1; d-- {
			spans = append(spans, span{info.rp.Before(d), info.rp.After(d), info.rp.Node(d), info.rp.Node(d - 1)})
		}
	}

	for _, sp := range spans {
		if sp.parent == doc && len(doc.Children) == 1 {
			// Sole top-level block: clear it instead of removing it.
			if sp.node.Type == schema.NodeParagraph && sp.node.TextContent() == "" {
				return NoOp()
			}
			tr := c.ed.Tx()
			if err := tr.ReplaceBlocks(sp.before, sp.after, schema.NewNode(schema.NodeParagraph, nil)); err != nil {
				return Error(err)
			}
			tr.SetSelection(transaction.Cursor(sp.before + 1))
			if err := c.ed.Apply(tr); err != nil {
				return Error(err)
			}
			return Success()
		}
		tr := c.ed.Tx()
		if err := tr.ReplaceBlocks(sp.before, sp.after); err != nil {
			// Removal breaks the parent's grammar; climb to the enclosing
			// block and try again.
			continue
		}
		pos := sp.before
		if end := tr.Doc().ContentSize(); pos > end {
			pos = end
		}
		tr.SetSelection(transaction.Cursor(pos))
		if err := c.ed.Apply(tr); err != nil {
			return Error(err)
		}
		return Success()
	}
	return NoOp()
}

// ToggleChecked flips the checked attribute of the task item starting
// at pos. Does nothing if the node there is not a task item.
func (c *Commands) ToggleChecked(pos int) Result {
	return c.toggleAttr(pos, schema.NodeTaskItem, "checked")
}

// ToggleOpen flips the open attribute of the toggle item starting at
// pos. Does nothing if the node there is not a toggle item.
func (c *Commands) ToggleOpen(pos int) Result {
	return c.toggleAttr(pos, schema.NodeToggleItem, "open")
}

func (c *Commands) toggleAttr(pos int, want schema.NodeType, key string) Result {
	doc := c.ed.Doc()
	node, err := transaction.NodeAt(doc, pos)
	if err != nil || node.Type != want {
		return NoOp()
	}
	attrs := make(map[string]any, len(node.Attrs)+1)
	for k, v := range node.Attrs {
		attrs[k] = v
	}
	attrs[key] = !node.BoolAttr(key, false)

	tr := c.ed.Tx()
	if err := tr.SetAttrs(pos, attrs); err != nil {
		return Error(err)
	}
	if err := c.ed.Apply(tr); err != nil {
		return Error(err)
	}
	return Success()
}

// ToggleMark toggles an inline mark over the selection. The selection
// must be non-empty and stay inside one text block.
func (c *Commands) ToggleMark(t schema.MarkType, attrs map[string]any) Result {
	sel := c.ed.Selection()
	if sel.Empty() {
		return NoOp()
	}
	doc := c.ed.Doc()
	from, err := transaction.Resolve(doc, sel.From())
	if err != nil {
		return NoOp()
	}
	to, err := transaction.Resolve(doc, sel.To())
	if err != nil {
		return NoOp()
	}
	if from.Parent() != to.Parent() {
		return NoOp()
	}

	mark := schema.Mark{Type: t, Attrs: attrs}
	tr := c.ed.Tx()
	if rangeHasMark(from.Parent(), from.ParentOffset(), to.ParentOffset(), t) {
		err = tr.RemoveMark(sel.From(), sel.To(), mark)
	} else {
		err = tr.AddMark(sel.From(), sel.To(), mark)
	}
	if err != nil {
		// Plain-text blocks reject marks; report as no-op, not failure.
		return NoOp()
	}
	if err := c.ed.Apply(tr); err != nil {
		return Error(err)
	}
	return Success()
}

// rangeHasMark reports whether every text run covering [a, b) of the
// parent's content carries the mark.
func rangeHasMark(parent *schema.Node, a, b int, t schema.MarkType) bool {
	off := 0
	found := false
	for _, c := range parent.Children {
		end := off + c.Size()
		if end > a && off < b && c.IsText() {
			if !schema.ContainsMark(c.Marks, t) {
				return false
			}
			found = true
		}
		off = end
	}
	return found
}
