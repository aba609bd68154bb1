package history

import (
	"errors"
	"sync"
	"time"

	"github.com/castlebay/notedown/internal/engine/transaction"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Entry records one undoable transaction: the inverse steps that take
// the document back, the original steps that take it forward again, and
// the selections on both sides.
type Entry struct {
	UndoSteps []transaction.Step
	RedoSteps []transaction.Step
	SelBefore transaction.Selection
	SelAfter  transaction.Selection
	At        time.Time
}

// History manages the undo and redo stacks for a document.
type History struct {
	mu sync.Mutex

	undoStack []*Entry
	redoStack []*Entry

	maxEntries int
}

// New creates a history manager.
func New(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &History{maxEntries: maxEntries}
}

// Record pushes an entry for a freshly applied transaction. Any redo
// state is invalidated.
func (h *History) Record(e *Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e.At.IsZero() {
		e.At = time.Now()
	}
	h.undoStack = append(h.undoStack, e)
	h.redoStack = nil

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// PopUndo removes and returns the most recent undo entry.
func (h *History) PopUndo() (*Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	return e, nil
}

// PushUndo restores an entry to the undo stack without clearing redo,
// used when an undo application fails or a redo succeeds.
func (h *History) PushUndo(e *Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack = append(h.undoStack, e)
}

// PopRedo removes and returns the most recent redo entry.
func (h *History) PopRedo() (*Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	return e, nil
}

// PushRedo places an undone entry on the redo stack.
func (h *History) PushRedo(e *Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redoStack = append(h.redoStack, e)
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of available undo entries.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of available redo entries.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Clear removes all undo/redo state.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack = nil
	h.redoStack = nil
}
