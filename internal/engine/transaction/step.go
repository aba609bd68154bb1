package transaction

import (
	"github.com/castlebay/notedown/internal/engine/schema"
)

// Step is one primitive, invertible edit operation. Applying a step is
// functional: the input document is never modified.
type Step interface {
	// Apply produces the document after the step, or an error if the
	// step's target is invalid or the result violates the grammar.
	Apply(s *schema.Schema, doc *schema.Node) (*schema.Node, error)

	// Invert builds the inverse step against the document the step was
	// applied to.
	Invert(doc *schema.Node) (Step, error)

	// Map returns the position map describing the step's effect.
	Map() StepMap
}

// ============================================================================
// ReplaceTextStep
// ============================================================================

// ReplaceTextStep replaces the inline range [From, To) of a single
// textblock with the given text runs. Nodes must be text nodes.
type ReplaceTextStep struct {
	From  int
	To    int
	Nodes []*schema.Node
}

// NewInsertText builds a step inserting one marked text run at pos.
func NewInsertText(pos int, text string, marks ...schema.Mark) *ReplaceTextStep {
	return &ReplaceTextStep{From: pos, To: pos, Nodes: []*schema.Node{schema.NewText(text, marks...)}}
}

// NewDeleteText builds a step removing the inline range [from, to).
func NewDeleteText(from, to int) *ReplaceTextStep {
	return &ReplaceTextStep{From: from, To: to}
}

// Apply implements Step.
func (st *ReplaceTextStep) Apply(s *schema.Schema, doc *schema.Node) (*schema.Node, error) {
	if st.To < st.From {
		return nil, ErrRangeInvalid
	}
	for _, n := range st.Nodes {
		if !n.IsText() {
			return nil, ErrRangeInvalid
		}
	}
	from, err := Resolve(doc, st.From)
	if err != nil {
		return nil, err
	}
	to, err := Resolve(doc, st.To)
	if err != nil {
		return nil, err
	}
	if !sameParent(from, to) {
		return nil, ErrRangeInvalid
	}
	parent := from.Parent()
	if !s.IsTextblock(parent.Type) {
		return nil, ErrRangeInvalid
	}

	prefix, _, suffix := splitInline(parent, from.ParentOffset(), to.ParentOffset())
	children := mergeInline(concatRuns(prefix, st.Nodes, suffix))
	newParent := parent.WithChildren(children...)
	newDoc := from.rebuild(from.Depth(), newParent)
	if err := s.Validate(newDoc); err != nil {
		return nil, err
	}
	return newDoc, nil
}

// Invert implements Step.
func (st *ReplaceTextStep) Invert(doc *schema.Node) (Step, error) {
	from, err := Resolve(doc, st.From)
	if err != nil {
		return nil, err
	}
	to, err := Resolve(doc, st.To)
	if err != nil {
		return nil, err
	}
	if !sameParent(from, to) {
		return nil, ErrRangeInvalid
	}
	_, replaced, _ := splitInline(from.Parent(), from.ParentOffset(), to.ParentOffset())
	return &ReplaceTextStep{
		From:  st.From,
		To:    st.From + nodesSize(st.Nodes),
		Nodes: replaced,
	}, nil
}

// Map implements Step.
func (st *ReplaceTextStep) Map() StepMap {
	return NewStepMap(st.From, st.To-st.From, nodesSize(st.Nodes))
}

// ============================================================================
// ReplaceBlocksStep
// ============================================================================

// ReplaceBlocksStep replaces the child range between two sibling
// boundaries with new nodes. From and To must both sit between children
// of the same parent node.
type ReplaceBlocksStep struct {
	From  int
	To    int
	Nodes []*schema.Node
}

// Apply implements Step.
func (st *ReplaceBlocksStep) Apply(s *schema.Schema, doc *schema.Node) (*schema.Node, error) {
	if st.To < st.From {
		return nil, ErrRangeInvalid
	}
	from, err := Resolve(doc, st.From)
	if err != nil {
		return nil, err
	}
	to, err := Resolve(doc, st.To)
	if err != nil {
		return nil, err
	}
	if !from.AtBoundary() || !to.AtBoundary() || !sameParent(from, to) {
		return nil, ErrRangeInvalid
	}
	parent := from.Parent()
	i, j := from.Index(from.Depth()), to.Index(to.Depth())

	children := make([]*schema.Node, 0, len(parent.Children)-(j-i)+len(st.Nodes))
	children = append(children, parent.Children[:i]...)
	children = append(children, st.Nodes...)
	children = append(children, parent.Children[j:]...)
	newDoc := from.rebuild(from.Depth(), parent.WithChildren(children...))
	if err := s.Validate(newDoc); err != nil {
		return nil, err
	}
	return newDoc, nil
}

// Invert implements Step.
func (st *ReplaceBlocksStep) Invert(doc *schema.Node) (Step, error) {
	from, err := Resolve(doc, st.From)
	if err != nil {
		return nil, err
	}
	to, err := Resolve(doc, st.To)
	if err != nil {
		return nil, err
	}
	if !from.AtBoundary() || !to.AtBoundary() || !sameParent(from, to) {
		return nil, ErrRangeInvalid
	}
	parent := from.Parent()
	i, j := from.Index(from.Depth()), to.Index(to.Depth())
	replaced := append([]*schema.Node(nil), parent.Children[i:j]...)
	return &ReplaceBlocksStep{
		From:  st.From,
		To:    st.From + nodesSize(st.Nodes),
		Nodes: replaced,
	}, nil
}

// Map implements Step.
func (st *ReplaceBlocksStep) Map() StepMap {
	return NewStepMap(st.From, st.To-st.From, nodesSize(st.Nodes))
}

// ============================================================================
// SetAttrsStep
// ============================================================================

// SetAttrsStep replaces the attribute map of the node starting at Pos.
// Pos must be the boundary position immediately before the node.
type SetAttrsStep struct {
	Pos   int
	Attrs map[string]any
}

// Apply implements Step.
func (st *SetAttrsStep) Apply(s *schema.Schema, doc *schema.Node) (*schema.Node, error) {
	rp, target, err := resolveNodeAt(doc, st.Pos)
	if err != nil {
		return nil, err
	}
	newDoc := rp.rebuild(rp.Depth(), rp.Parent().Clone())
	// rebuild gave us a fresh parent chain; swap the target child
	parent := findAlong(newDoc, rp)
	parent.Children[rp.Index(rp.Depth())] = target.WithAttrs(st.Attrs)
	if err := s.Validate(newDoc); err != nil {
		return nil, err
	}
	return newDoc, nil
}

// Invert implements Step.
func (st *SetAttrsStep) Invert(doc *schema.Node) (Step, error) {
	_, target, err := resolveNodeAt(doc, st.Pos)
	if err != nil {
		return nil, err
	}
	return &SetAttrsStep{Pos: st.Pos, Attrs: target.Attrs}, nil
}

// Map implements Step.
func (st *SetAttrsStep) Map() StepMap {
	return IdentityMap
}

// resolveNodeAt resolves a boundary position and returns the node
// immediately after it.
func resolveNodeAt(doc *schema.Node, pos int) (*ResolvedPos, *schema.Node, error) {
	rp, err := Resolve(doc, pos)
	if err != nil {
		return nil, nil, err
	}
	parent := rp.Parent()
	idx := rp.Index(rp.Depth())
	if !rp.AtBoundary() || idx >= len(parent.Children) {
		return nil, nil, ErrNoNodeAt
	}
	return rp, parent.Children[idx], nil
}

// findAlong walks the freshly rebuilt document along the resolved path
// and returns the (mutable) copy of the innermost parent.
func findAlong(doc *schema.Node, rp *ResolvedPos) *schema.Node {
	n := doc
	for d := 1; d <= rp.Depth(); d++ {
		n = n.Children[rp.Index(d-1)]
	}
	return n
}

// ============================================================================
// Mark steps
// ============================================================================

// AddMarkStep adds a mark to the inline range [From, To) of one
// textblock.
type AddMarkStep struct {
	From int
	To   int
	Mark schema.Mark
}

// Apply implements Step.
func (st *AddMarkStep) Apply(s *schema.Schema, doc *schema.Node) (*schema.Node, error) {
	return applyMarkStep(s, doc, st.From, st.To, func(marks []schema.Mark) []schema.Mark {
		return schema.AddMark(marks, st.Mark)
	})
}

// Invert implements Step. The range is assumed to be uniformly unmarked
// before the step, which holds for every producer in this codebase.
func (st *AddMarkStep) Invert(doc *schema.Node) (Step, error) {
	return &RemoveMarkStep{From: st.From, To: st.To, Mark: st.Mark}, nil
}

// Map implements Step.
func (st *AddMarkStep) Map() StepMap {
	return IdentityMap
}

// RemoveMarkStep removes a mark from the inline range [From, To) of one
// textblock.
type RemoveMarkStep struct {
	From int
	To   int
	Mark schema.Mark
}

// Apply implements Step.
func (st *RemoveMarkStep) Apply(s *schema.Schema, doc *schema.Node) (*schema.Node, error) {
	return applyMarkStep(s, doc, st.From, st.To, func(marks []schema.Mark) []schema.Mark {
		return schema.RemoveMark(marks, st.Mark.Type)
	})
}

// Invert implements Step. The range is assumed to be uniformly marked
// before the step.
func (st *RemoveMarkStep) Invert(doc *schema.Node) (Step, error) {
	return &AddMarkStep{From: st.From, To: st.To, Mark: st.Mark}, nil
}

// Map implements Step.
func (st *RemoveMarkStep) Map() StepMap {
	return IdentityMap
}

// applyMarkStep rewrites the mark sets of the runs covering [from, to).
func applyMarkStep(s *schema.Schema, doc *schema.Node, fromPos, toPos int, rewrite func([]schema.Mark) []schema.Mark) (*schema.Node, error) {
	if toPos < fromPos {
		return nil, ErrRangeInvalid
	}
	from, err := Resolve(doc, fromPos)
	if err != nil {
		return nil, err
	}
	to, err := Resolve(doc, toPos)
	if err != nil {
		return nil, err
	}
	if !sameParent(from, to) {
		return nil, ErrRangeInvalid
	}
	parent := from.Parent()
	if !s.IsTextblock(parent.Type) {
		return nil, ErrRangeInvalid
	}

	prefix, mid, suffix := splitInline(parent, from.ParentOffset(), to.ParentOffset())
	for i, r := range mid {
		mid[i] = r.WithMarks(rewrite(r.Marks))
	}
	children := mergeInline(concatRuns(prefix, mid, suffix))
	newDoc := from.rebuild(from.Depth(), parent.WithChildren(children...))
	if err := s.Validate(newDoc); err != nil {
		return nil, err
	}
	return newDoc, nil
}

// concatRuns concatenates three run lists into a fresh slice.
func concatRuns(a, b, c []*schema.Node) []*schema.Node {
	out := make([]*schema.Node, 0, len(a)+len(b)+len(c))
	out = append(out, a...)
	out = append(out, b...)
	out = append(out, c...)
	return out
}
