package ai

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/castlebay/notedown/internal/ai/provider"
	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
	"github.com/castlebay/notedown/internal/reconcile"
)

// State is the session's lifecycle state.
type State uint8

const (
	// StateIdle means no suggestion exists.
	StateIdle State = iota
	// StateStreaming means generated text is arriving.
	StateStreaming
	// StatePending means a complete suggestion awaits review.
	StatePending
	// StateModifying means a revision of the suggestion is arriving.
	StateModifying
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StatePending:
		return "pending"
	case StateModifying:
		return "modifying"
	default:
		return "unknown"
	}
}

// contextLimit bounds how much preceding document text goes into a
// continue prompt, in bytes.
const contextLimit = 4000

// Session drives one provisional suggestion through its lifecycle:
// generate streams marked text into the document, then the user
// accepts it (reconciled into real structure), rejects it (removed
// without trace), or asks for a revision. At most one suggestion is
// live per session.
//
// The provisional text carries the suggestion mark and is excluded
// from undo history; only the accept lands as an undoable change.
type Session struct {
	ed     *engine.Editor
	prov   provider.Provider
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	done      chan struct{}
	streamErr error

	// Provisional range, tracked through concurrent edits. The reject
	// path trusts these, never the live document size.
	insertStart int
	insertEnd   int

	structured   string
	originalRuns []*schema.Node
	lastAction   Action

	applying atomic.Bool
}

// SessionOption configures a session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a suggestion session bound to an editor and a
// provider.
func NewSession(ed *engine.Editor, prov provider.Provider, opts ...SessionOption) *Session {
	s := &Session{ed: ed, prov: prov}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Attach registers the session as an editor observer so the
// provisional range survives concurrent edits.
func (s *Session) Attach() {
	s.ed.OnApply(s.observe)
}

// observe remaps the provisional range through foreign transactions.
func (s *Session) observe(ev engine.ApplyEvent) {
	if s.applying.Load() || ev.Transaction == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return
	}
	m := ev.Transaction.Mapping()
	s.insertStart = m.Map(s.insertStart, -1)
	s.insertEnd = m.Map(s.insertEnd, 1)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Range returns the provisional text range while a suggestion is live.
func (s *Session) Range() (from, to int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return 0, 0, false
	}
	return s.insertStart, s.insertEnd, true
}

// Generate starts a suggestion at the selection. Rewriting actions
// consume a non-empty selection: it is lifted out of the document and
// restored verbatim on reject. Returns ErrSessionActive while another
// suggestion is live.
func (s *Session) Generate(ctx context.Context, in PromptInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrSessionActive
	}

	doc := s.ed.Doc()
	sel := s.ed.Selection()
	anchor := sel.To()
	var original []*schema.Node

	if in.Action.consumesSelection() && !sel.Empty() {
		from, err := transaction.Resolve(doc, sel.From())
		if err != nil {
			return err
		}
		to, err := transaction.Resolve(doc, sel.To())
		if err != nil {
			return err
		}
		if from.Parent() != to.Parent() || !s.ed.Schema().IsTextblock(from.Parent().Type) {
			return ErrNotInTextblock
		}
		in.Selection = doc.TextBetween(sel.From(), sel.To())
		original = runsBetween(from.Parent(), from.ParentOffset(), to.ParentOffset())

		tr := s.ed.Tx()
		if err := tr.DeleteText(sel.From(), sel.To()); err != nil {
			return err
		}
		tr.SetNoUndo()
		tr.SetSelection(transaction.Cursor(sel.From()))
		if err := s.applyOwn(tr); err != nil {
			return err
		}
		anchor = sel.From()
	} else {
		rp, err := transaction.Resolve(doc, anchor)
		if err != nil {
			return err
		}
		if !s.ed.Schema().IsTextblock(rp.Parent().Type) {
			return ErrNotInTextblock
		}
		if in.Context == "" {
			in.Context = tailOf(doc.TextBetween(0, anchor), contextLimit)
		}
	}

	s.insertStart, s.insertEnd = anchor, anchor
	s.originalRuns = original
	s.structured = ""
	s.streamErr = nil
	s.lastAction = in.Action

	if in.Structured {
		return s.generateStructuredLocked(ctx, in)
	}

	ctx, cancel := context.WithCancel(ctx)
	st, err := s.prov.GenerateStream(ctx, BuildPrompt(in))
	if err != nil {
		cancel()
		s.rollbackLocked()
		return err
	}
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateStreaming
	s.logger.Info("suggestion started", "provider", s.prov.Name(), "action", string(in.Action))
	go s.consume(st)
	return nil
}

// generateStructuredLocked performs a blocking structured generation:
// the raw payload text lands as one provisional insert, and the parsed
// blocks replace it on accept.
func (s *Session) generateStructuredLocked(ctx context.Context, in PromptInput) error {
	resp, err := s.prov.Generate(ctx, BuildPrompt(in))
	if err != nil {
		s.rollbackLocked()
		return err
	}
	tr := s.ed.Tx()
	if err := tr.InsertText(s.insertStart, resp.Text, schema.Mark{Type: schema.MarkSuggestion}); err != nil {
		s.rollbackLocked()
		return err
	}
	tr.SetNoUndo()
	if err := s.applyOwn(tr); err != nil {
		s.rollbackLocked()
		return err
	}
	s.insertEnd = s.insertStart + utf8.RuneCountInString(resp.Text)
	s.structured = resp.Structured
	s.state = StatePending
	done := make(chan struct{})
	close(done)
	s.done = done
	return nil
}

// consume drains one stream into the document.
func (s *Session) consume(st *provider.Stream) {
	for chunk := range st.Chunks() {
		if err := s.insertChunk(chunk); err != nil {
			s.logger.Error("suggestion insert failed", "error", err)
			s.mu.Lock()
			cancel := s.cancel
			s.mu.Unlock()
			cancel()
		}
	}
	err := st.Wait()

	s.mu.Lock()
	switch {
	case err == nil:
		if s.insertEnd > s.insertStart {
			s.state = StatePending
		} else {
			s.rollbackLocked()
		}
	case errors.Is(err, context.Canceled):
		// Stopped mid-stream: the partial text goes away with it.
		s.rollbackLocked()
	default:
		// The stream died: remove the partial suggestion entirely.
		s.streamErr = err
		s.logger.Error("suggestion stream failed", "error", err)
		s.rollbackLocked()
	}
	done := s.done
	s.mu.Unlock()
	close(done)
}

// insertChunk appends one streamed fragment, carrying the suggestion
// mark, at the end of the provisional range.
func (s *Session) insertChunk(chunk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr := s.ed.Tx()
	if err := tr.InsertText(s.insertEnd, chunk, schema.Mark{Type: schema.MarkSuggestion}); err != nil {
		return err
	}
	tr.SetNoUndo()
	if err := s.applyOwn(tr); err != nil {
		return err
	}
	s.insertEnd += utf8.RuneCountInString(chunk)
	return nil
}

// Stop cancels an in-flight generation, removes any partial text, and
// returns the session to idle. A no-op outside the streaming states.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != StateStreaming && s.state != StateModifying {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	cancel()
	<-done
}

// Wait blocks until the current generation finishes and returns the
// stream error, if any. Nil when no generation is running.
func (s *Session) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamErr
}

// Accept converts the pending suggestion into permanent content. Plain
// prose keeps its place in the paragraph; structured or multi-block
// output replaces the enclosing block (when the suggestion spans it
// entirely) or is inserted after it. The accepted change is one
// undoable transaction.
func (s *Session) Accept() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePending {
		return ErrNoSuggestion
	}

	doc := s.ed.Doc()
	start, end := s.insertStart, s.insertEnd
	var nodes []*schema.Node
	if s.structured != "" {
		nodes, _ = reconcile.FromStructured(s.ed.Schema(), s.structured, s.logger)
	} else {
		nodes = reconcile.FromText(doc.TextBetween(start, end))
	}

	rp, err := transaction.Resolve(doc, start)
	if err != nil {
		return err
	}
	depth := rp.Depth()
	blockBefore, blockAfter := rp.Before(depth), rp.After(depth)
	wholeBlock := start == rp.Start(depth) && end == rp.End(depth)

	tr := s.ed.Tx()
	var cursor int
	switch {
	case !reconcile.HasStructure(nodes):
		if err := tr.ReplaceText(start, end, nodes[0].Children...); err != nil {
			return err
		}
		cursor = tr.Mapping().Map(end, -1)
	case wholeBlock:
		if err := tr.ReplaceBlocks(blockBefore, blockAfter, nodes...); err != nil {
			return err
		}
		cursor = blockBefore + nodesSize(nodes)
	default:
		if err := tr.DeleteText(start, end); err != nil {
			return err
		}
		at := tr.Mapping().Map(blockAfter, 1)
		if err := tr.ReplaceBlocks(at, at, nodes...); err != nil {
			return err
		}
		cursor = at + nodesSize(nodes)
	}
	tr.SetSelection(transaction.Cursor(cursor))
	if err := s.applyOwn(tr); err != nil {
		return err
	}
	s.resetLocked()
	return nil
}

// Reject removes the suggestion and restores any consumed selection.
// Safe to call in any state; rejecting twice is a no-op. A streaming
// suggestion is stopped first. The tracked range is authoritative even
// if surrounding content moved.
func (s *Session) Reject() error {
	s.mu.Lock()
	if s.state == StateStreaming || s.state == StateModifying {
		cancel, done := s.cancel, s.done
		s.mu.Unlock()
		cancel()
		<-done
		s.mu.Lock()
	}
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return nil
	}
	s.rollbackLocked()
	return nil
}

// Modify discards the pending text and streams a revision built from
// it and the instruction. The session returns to pending when the
// revision completes; reject still restores the original selection.
func (s *Session) Modify(ctx context.Context, instruction string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePending {
		return ErrNoSuggestion
	}

	doc := s.ed.Doc()
	draft := doc.TextBetween(s.insertStart, s.insertEnd)
	if s.insertEnd > s.insertStart {
		tr := s.ed.Tx()
		if err := tr.DeleteText(s.insertStart, s.insertEnd); err != nil {
			return err
		}
		tr.SetNoUndo()
		if err := s.applyOwn(tr); err != nil {
			return err
		}
		s.insertEnd = s.insertStart
	}

	in := PromptInput{
		Action:        s.lastAction,
		PreviousDraft: draft,
		Instruction:   instruction,
	}
	ctx, cancel := context.WithCancel(ctx)
	st, err := s.prov.GenerateStream(ctx, BuildPrompt(in))
	if err != nil {
		cancel()
		// Put the draft back so the suggestion stays reviewable.
		tr := s.ed.Tx()
		if ierr := tr.InsertText(s.insertStart, draft, schema.Mark{Type: schema.MarkSuggestion}); ierr == nil {
			tr.SetNoUndo()
			if s.applyOwn(tr) == nil {
				s.insertEnd = s.insertStart + utf8.RuneCountInString(draft)
			}
		}
		return err
	}
	s.cancel = cancel
	s.done = make(chan struct{})
	s.structured = ""
	s.state = StateModifying
	s.logger.Info("suggestion revision started", "provider", s.prov.Name())
	go s.consume(st)
	return nil
}

// applyOwn applies one of the session's own transactions with position
// observation suppressed.
func (s *Session) applyOwn(tr *transaction.Transaction) error {
	s.applying.Store(true)
	defer s.applying.Store(false)
	return s.ed.Apply(tr)
}

// rollbackLocked deletes the provisional range and restores the
// consumed selection, then resets to idle.
func (s *Session) rollbackLocked() {
	if s.insertEnd > s.insertStart || len(s.originalRuns) > 0 {
		tr := s.ed.Tx()
		if err := tr.ReplaceText(s.insertStart, s.insertEnd, s.originalRuns...); err == nil {
			tr.SetNoUndo()
			tr.SetSelection(transaction.Cursor(s.insertStart + nodesText(s.originalRuns)))
			if err := s.applyOwn(tr); err != nil {
				s.logger.Error("suggestion rollback failed", "error", err)
			}
		} else {
			s.logger.Error("suggestion rollback failed", "error", err)
		}
	}
	s.resetLocked()
}

// resetLocked clears all suggestion tracking.
func (s *Session) resetLocked() {
	s.state = StateIdle
	s.cancel = nil
	s.insertStart, s.insertEnd = 0, 0
	s.structured = ""
	s.originalRuns = nil
}

// runsBetween extracts the text runs covering [a, b) of the parent's
// content, cutting runs at the range edges.
func runsBetween(parent *schema.Node, a, b int) []*schema.Node {
	var out []*schema.Node
	off := 0
	for _, c := range parent.Children {
		end := off + c.Size()
		if end > a && off < b && c.IsText() {
			rs := []rune(c.Text)
			lo, hi := a-off, b-off
			if lo < 0 {
				lo = 0
			}
			if hi > len(rs) {
				hi = len(rs)
			}
			out = append(out, c.WithText(string(rs[lo:hi])))
		}
		off = end
	}
	return out
}

// nodesSize sums the token sizes of a node list.
func nodesSize(nodes []*schema.Node) int {
	total := 0
	for _, n := range nodes {
		total += n.Size()
	}
	return total
}

// nodesText sums the rune counts of text runs.
func nodesText(runs []*schema.Node) int {
	total := 0
	for _, r := range runs {
		total += utf8.RuneCountInString(r.Text)
	}
	return total
}

// tailOf returns at most limit trailing bytes of text, cut at a rune
// boundary.
func tailOf(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := len(text) - limit
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	return text[cut:]
}
