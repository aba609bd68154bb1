package engine

import (
	"errors"

	"github.com/castlebay/notedown/internal/engine/history"
)

// Errors returned by editor operations.
var (
	// ErrStaleTransaction indicates a transaction built against an
	// outdated document version.
	ErrStaleTransaction = errors.New("transaction is stale")

	// ErrReadOnly indicates a write on a read-only editor.
	ErrReadOnly = errors.New("editor is read-only")

	// ErrNothingToUndo and ErrNothingToRedo mirror the history
	// package's sentinels so callers need not import it.
	ErrNothingToUndo = history.ErrNothingToUndo
	ErrNothingToRedo = history.ErrNothingToRedo
)
