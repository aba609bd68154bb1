package history

import (
	"errors"
	"testing"

	"github.com/castlebay/notedown/internal/engine/transaction"
)

func entry() *Entry {
	return &Entry{
		SelBefore: transaction.Cursor(1),
		SelAfter:  transaction.Cursor(2),
	}
}

func TestRecordAndPop(t *testing.T) {
	h := New(10)
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("fresh history not empty")
	}

	e1, e2 := entry(), entry()
	h.Record(e1)
	h.Record(e2)
	if h.UndoCount() != 2 {
		t.Fatalf("UndoCount = %d", h.UndoCount())
	}

	got, err := h.PopUndo()
	if err != nil {
		t.Fatal(err)
	}
	if got != e2 {
		t.Fatal("PopUndo is not LIFO")
	}
}

func TestEmptyPops(t *testing.T) {
	h := New(10)
	if _, err := h.PopUndo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("err = %v", err)
	}
	if _, err := h.PopRedo(); !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("err = %v", err)
	}
}

func TestRecordClearsRedo(t *testing.T) {
	h := New(10)
	h.Record(entry())
	e, _ := h.PopUndo()
	h.PushRedo(e)
	if !h.CanRedo() {
		t.Fatal("redo missing after undo")
	}

	h.Record(entry())
	if h.CanRedo() {
		t.Fatal("redo survived a new transaction")
	}
}

func TestMaxEntries(t *testing.T) {
	h := New(3)
	first := entry()
	h.Record(first)
	for i := 0; i < 3; i++ {
		h.Record(entry())
	}
	if h.UndoCount() != 3 {
		t.Fatalf("UndoCount = %d, want capped at 3", h.UndoCount())
	}
	// The oldest entry fell off the bottom.
	for i := 0; i < 3; i++ {
		e, err := h.PopUndo()
		if err != nil {
			t.Fatal(err)
		}
		if e == first {
			t.Fatal("oldest entry still present")
		}
	}
}

func TestClear(t *testing.T) {
	h := New(10)
	h.Record(entry())
	e, _ := h.PopUndo()
	h.PushRedo(e)
	h.Record(entry())

	h.Clear()
	if h.CanUndo() || h.CanRedo() {
		t.Fatal("Clear left state behind")
	}
}

func TestPushUndoKeepsRedo(t *testing.T) {
	h := New(10)
	h.Record(entry())
	undone, _ := h.PopUndo()
	h.PushRedo(undone)

	// A failed undo application restores the entry without touching redo.
	h.PushUndo(undone)
	if !h.CanUndo() || !h.CanRedo() {
		t.Fatal("PushUndo disturbed the stacks")
	}
}
