package blocks

import (
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
)

// exitable reports whether a node type is a container the cursor can
// break out of with ExitBlock.
func exitable(t schema.NodeType) bool {
	switch t {
	case schema.NodeCallout, schema.NodeCodeBlock, schema.NodeBlockquote,
		schema.NodeTaskItem, schema.NodeToggleItem, schema.NodeListItem:
		return true
	}
	return false
}

// ExitBlock breaks the cursor out of the innermost enclosing container.
// An empty container is removed (an empty sole list item removes the
// whole list); a non-empty one is left intact. Either way the cursor
// lands in a fresh paragraph after the structure. Does nothing when the
// cursor is not inside a container.
func (c *Commands) ExitBlock() Result {
	doc := c.ed.Doc()
	sel := c.ed.Selection()
	if !sel.Empty() {
		return NoOp()
	}
	rp, err := transaction.Resolve(doc, sel.Head)
	if err != nil {
		return NoOp()
	}
	dc := -1
	for d := rp.Depth(); d >= 1; d-- {
		if exitable(rp.Node(d).Type) {
			dc = d
			break
		}
	}
	if dc < 0 {
		return NoOp()
	}
	return c.exitAt(rp, dc, rp.Node(dc).TextContent() == "")
}

// BackspaceExit dissolves an empty container when backspace is pressed
// at its start: the container is removed and replaced with a paragraph
// at the same level. Does nothing elsewhere.
func (c *Commands) BackspaceExit() Result {
	doc := c.ed.Doc()
	sel := c.ed.Selection()
	if !sel.Empty() {
		return NoOp()
	}
	rp, err := transaction.Resolve(doc, sel.Head)
	if err != nil {
		return NoOp()
	}
	if rp.ParentOffset() != 0 {
		return NoOp()
	}
	dc := -1
	for d := rp.Depth(); d >= 1; d-- {
		if exitable(rp.Node(d).Type) {
			dc = d
			break
		}
	}
	if dc < 0 || rp.Node(dc).TextContent() != "" {
		return NoOp()
	}
	return c.exitAt(rp, dc, true)
}

// exitAt performs the exit around the container at depth dc. When empty
// is set the container itself is removed.
func (c *Commands) exitAt(rp *transaction.ResolvedPos, dc int, empty bool) Result {
	container := rp.Node(dc)
	before, after := rp.Before(dc), rp.After(dc)
	para := schema.NewNode(schema.NodeParagraph, nil)
	tr := c.ed.Tx()

	isItem := container.Type == schema.NodeTaskItem ||
		container.Type == schema.NodeToggleItem ||
		container.Type == schema.NodeListItem

	switch {
	case empty && isItem:
		list := rp.Node(dc - 1)
		listBefore, listAfter := rp.Before(dc-1), rp.After(dc-1)
		if len(list.Children) == 1 {
			// Last item: the list goes with it.
			if err := tr.ReplaceBlocks(listBefore, listAfter, para); err != nil {
				return Error(err)
			}
			tr.SetSelection(transaction.Cursor(listBefore + 1))
		} else {
			if err := tr.ReplaceBlocks(before, after); err != nil {
				return Error(err)
			}
			at := tr.Mapping().Map(listAfter, 1)
			if err := tr.ReplaceBlocks(at, at, para); err != nil {
				return Error(err)
			}
			tr.SetSelection(transaction.Cursor(at + 1))
		}
	case empty:
		if err := tr.ReplaceBlocks(before, after, para); err != nil {
			return Error(err)
		}
		tr.SetSelection(transaction.Cursor(before + 1))
	case isItem:
		// Non-empty item: continue after the whole list.
		listAfter := rp.After(dc - 1)
		if err := tr.ReplaceBlocks(listAfter, listAfter, para); err != nil {
			return Error(err)
		}
		tr.SetSelection(transaction.Cursor(listAfter + 1))
	default:
		if err := tr.ReplaceBlocks(after, after, para); err != nil {
			return Error(err)
		}
		tr.SetSelection(transaction.Cursor(after + 1))
	}

	if err := c.ed.Apply(tr); err != nil {
		return Error(err)
	}
	return Success()
}
