package transaction

import (
	"github.com/castlebay/notedown/internal/engine/schema"
)

// Transaction is an ordered list of steps computed against one document
// version. Steps are applied eagerly to the transaction's private
// document copy; the owning editor publishes the result atomically, so
// a transaction is never partially visible.
type Transaction struct {
	schema  *schema.Schema
	before  *schema.Node
	doc     *schema.Node
	steps   []Step
	preDocs []*schema.Node // document before each step, for inversion
	mapping Mapping

	sel    *Selection
	noUndo bool
}

// New starts a transaction against the given document version.
func New(s *schema.Schema, doc *schema.Node) *Transaction {
	return &Transaction{schema: s, before: doc, doc: doc}
}

// AddStep applies a step to the transaction's document. On error the
// transaction is left exactly as it was.
func (tr *Transaction) AddStep(st Step) error {
	newDoc, err := st.Apply(tr.schema, tr.doc)
	if err != nil {
		return err
	}
	tr.preDocs = append(tr.preDocs, tr.doc)
	tr.steps = append(tr.steps, st)
	tr.mapping.Append(st.Map())
	tr.doc = newDoc
	return nil
}

// InsertText inserts a marked text run at pos.
func (tr *Transaction) InsertText(pos int, text string, marks ...schema.Mark) error {
	return tr.AddStep(NewInsertText(pos, text, marks...))
}

// DeleteText removes the inline range [from, to).
func (tr *Transaction) DeleteText(from, to int) error {
	return tr.AddStep(NewDeleteText(from, to))
}

// ReplaceText replaces the inline range [from, to) with text runs.
func (tr *Transaction) ReplaceText(from, to int, runs ...*schema.Node) error {
	return tr.AddStep(&ReplaceTextStep{From: from, To: to, Nodes: runs})
}

// ReplaceBlocks replaces the sibling range between two boundaries.
func (tr *Transaction) ReplaceBlocks(from, to int, nodes ...*schema.Node) error {
	return tr.AddStep(&ReplaceBlocksStep{From: from, To: to, Nodes: nodes})
}

// SetAttrs replaces the attributes of the node starting at pos.
func (tr *Transaction) SetAttrs(pos int, attrs map[string]any) error {
	return tr.AddStep(&SetAttrsStep{Pos: pos, Attrs: attrs})
}

// AddMark adds a mark over the inline range [from, to).
func (tr *Transaction) AddMark(from, to int, m schema.Mark) error {
	return tr.AddStep(&AddMarkStep{From: from, To: to, Mark: m})
}

// RemoveMark removes a mark over the inline range [from, to).
func (tr *Transaction) RemoveMark(from, to int, m schema.Mark) error {
	return tr.AddStep(&RemoveMarkStep{From: from, To: to, Mark: m})
}

// SetSelection records an explicit selection for the editor to adopt.
// Without one, the editor maps its current selection through the
// transaction's mapping.
func (tr *Transaction) SetSelection(sel Selection) {
	tr.sel = &sel
}

// Selection returns the explicit selection, if set.
func (tr *Transaction) Selection() (Selection, bool) {
	if tr.sel == nil {
		return Selection{}, false
	}
	return *tr.sel, true
}

// SetNoUndo excludes the transaction from undo history. Used for the
// history's own undo/redo transactions.
func (tr *Transaction) SetNoUndo() {
	tr.noUndo = true
}

// NoUndo reports whether the transaction is excluded from history.
func (tr *Transaction) NoUndo() bool {
	return tr.noUndo
}

// Doc returns the document after all applied steps.
func (tr *Transaction) Doc() *schema.Node {
	return tr.doc
}

// Before returns the document the transaction was created against.
func (tr *Transaction) Before() *schema.Node {
	return tr.before
}

// Steps returns the applied steps.
func (tr *Transaction) Steps() []Step {
	return tr.steps
}

// Mapping returns the composed position mapping of all steps.
func (tr *Transaction) Mapping() Mapping {
	return tr.mapping
}

// DocChanged reports whether any step was applied.
func (tr *Transaction) DocChanged() bool {
	return len(tr.steps) > 0
}

// Invert builds the inverse steps in reverse order. Applying them to
// Doc() reproduces Before().
func (tr *Transaction) Invert() ([]Step, error) {
	inverse := make([]Step, 0, len(tr.steps))
	for i := len(tr.steps) - 1; i >= 0; i-- {
		inv, err := tr.steps[i].Invert(tr.preDocs[i])
		if err != nil {
			return nil, err
		}
		inverse = append(inverse, inv)
	}
	return inverse, nil
}
