package engine

import (
	"log/slog"
	"sync"

	"github.com/castlebay/notedown/internal/engine/history"
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
)

// ApplyEvent describes one published editor change. Observers receive
// it after the new document and selection are visible.
type ApplyEvent struct {
	// Doc is the document after the change.
	Doc *schema.Node

	// Selection is the selection after the change.
	Selection transaction.Selection

	// Transaction is the applied transaction; nil for selection-only
	// changes.
	Transaction *transaction.Transaction

	// TypedText is the text the user typed when the change came from
	// direct text input, empty otherwise. Pattern rules key off it.
	TypedText string

	// FromHistory is true for undo/redo transactions.
	FromHistory bool
}

// Observer is notified after every published change.
type Observer func(ApplyEvent)

// Editor owns one document: the current snapshot, the selection, the
// undo history, and the serialized transaction pipeline. All mutation
// flows through Apply; no other path writes to the tree.
type Editor struct {
	mu sync.Mutex

	schema *schema.Schema
	doc    *schema.Node
	sel    transaction.Selection
	hist   *history.History

	observers []Observer
	logger    *slog.Logger

	// Configuration
	maxUndoEntries int
	readOnly       bool
	initDoc        *schema.Node
}

// New creates an editor with the given options.
func New(opts ...Option) *Editor {
	e := &Editor{
		schema:         schema.Default(),
		maxUndoEntries: DefaultMaxUndoEntries,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.initDoc != nil {
		e.doc = e.initDoc
	} else {
		e.doc = e.schema.EmptyDocument()
	}
	e.hist = history.New(e.maxUndoEntries)
	e.sel = transaction.Cursor(0)
	return e
}

// Schema returns the document schema.
func (e *Editor) Schema() *schema.Schema {
	return e.schema
}

// Doc returns the current document snapshot.
func (e *Editor) Doc() *schema.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// Selection returns the current selection.
func (e *Editor) Selection() transaction.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel
}

// Tx starts a transaction against the current document version.
func (e *Editor) Tx() *transaction.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return transaction.New(e.schema, e.doc)
}

// SetSelection moves the selection without editing the document.
// Observers are notified so controllers tracking the cursor can react.
func (e *Editor) SetSelection(sel transaction.Selection) error {
	e.mu.Lock()
	size := e.doc.ContentSize()
	if sel.From() < 0 || sel.To() > size {
		e.mu.Unlock()
		return transaction.ErrPosOutOfRange
	}
	e.sel = sel
	ev := ApplyEvent{Doc: e.doc, Selection: e.sel}
	e.mu.Unlock()

	e.notify(ev)
	return nil
}

// Apply publishes a transaction: swaps in the new document, maps or
// adopts the selection, records history, and notifies observers. The
// transaction must have been built against the current document
// version; a stale transaction is rejected without effect.
func (e *Editor) Apply(tr *transaction.Transaction) error {
	return e.apply(tr, "", false)
}

// InsertTyped inserts typed text at the selection, replacing a
// non-empty selection first. Observers see the text as TypedText, which
// is what arms the pattern-rule and trigger-command machinery.
func (e *Editor) InsertTyped(text string) error {
	if text == "" {
		return nil
	}
	tr := e.Tx()
	sel := e.Selection()
	if !sel.Empty() {
		if err := tr.DeleteText(sel.From(), sel.To()); err != nil {
			return err
		}
	}
	if err := tr.InsertText(sel.From(), text); err != nil {
		return err
	}
	tr.SetSelection(transaction.Cursor(tr.Mapping().Map(sel.From(), 1)))
	return e.apply(tr, text, false)
}

func (e *Editor) apply(tr *transaction.Transaction, typed string, fromHistory bool) error {
	e.mu.Lock()
	if e.readOnly {
		e.mu.Unlock()
		return ErrReadOnly
	}
	if tr.Before() != e.doc {
		e.mu.Unlock()
		return ErrStaleTransaction
	}

	selBefore := e.sel
	newDoc := tr.Doc()
	var newSel transaction.Selection
	if explicit, ok := tr.Selection(); ok {
		newSel = explicit
	} else {
		newSel = e.sel.Map(tr.Mapping())
	}
	if newSel.To() > newDoc.ContentSize() {
		newSel = transaction.Cursor(newDoc.ContentSize())
	}

	if tr.DocChanged() && !tr.NoUndo() {
		inverse, err := tr.Invert()
		if err != nil {
			e.mu.Unlock()
			return err
		}
		e.hist.Record(&history.Entry{
			UndoSteps: inverse,
			RedoSteps: tr.Steps(),
			SelBefore: selBefore,
			SelAfter:  newSel,
		})
	}

	e.doc = newDoc
	e.sel = newSel
	ev := ApplyEvent{
		Doc:         e.doc,
		Selection:   e.sel,
		Transaction: tr,
		TypedText:   typed,
		FromHistory: fromHistory,
	}
	e.mu.Unlock()

	e.notify(ev)
	return nil
}

// Undo reverses the most recent undoable transaction.
func (e *Editor) Undo() error {
	entry, err := e.hist.PopUndo()
	if err != nil {
		return err
	}
	if err := e.applyEntry(entry.UndoSteps, entry.SelBefore); err != nil {
		e.hist.PushUndo(entry)
		return err
	}
	e.hist.PushRedo(entry)
	return nil
}

// Redo re-applies the most recently undone transaction.
func (e *Editor) Redo() error {
	entry, err := e.hist.PopRedo()
	if err != nil {
		return err
	}
	if err := e.applyEntry(entry.RedoSteps, entry.SelAfter); err != nil {
		e.hist.PushRedo(entry)
		return err
	}
	e.hist.PushUndo(entry)
	return nil
}

// applyEntry applies a history entry's steps as a non-recorded
// transaction.
func (e *Editor) applyEntry(steps []transaction.Step, sel transaction.Selection) error {
	tr := e.Tx()
	tr.SetNoUndo()
	for _, st := range steps {
		if err := tr.AddStep(st); err != nil {
			return err
		}
	}
	tr.SetSelection(sel)
	return e.apply(tr, "", true)
}

// CanUndo returns true if undo is available.
func (e *Editor) CanUndo() bool {
	return e.hist.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Editor) CanRedo() bool {
	return e.hist.CanRedo()
}

// ClearHistory removes all undo/redo state.
func (e *Editor) ClearHistory() {
	e.hist.Clear()
}

// OnApply registers an observer for published changes. Observers run
// without the editor lock held and may apply follow-up transactions.
func (e *Editor) OnApply(fn Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// notify calls observers outside the lock.
func (e *Editor) notify(ev ApplyEvent) {
	e.mu.Lock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// SetContent replaces the whole document and resets history and
// selection. Used when loading a persisted document.
func (e *Editor) SetContent(doc *schema.Node) error {
	if err := e.schema.Validate(doc); err != nil {
		return err
	}
	e.mu.Lock()
	e.doc = doc
	e.sel = transaction.Cursor(0)
	ev := ApplyEvent{Doc: e.doc, Selection: e.sel}
	e.mu.Unlock()

	e.hist.Clear()
	e.notify(ev)
	return nil
}

// Logger returns the editor's logger.
func (e *Editor) Logger() *slog.Logger {
	return e.logger
}
