package engine

import (
	"log/slog"

	"github.com/castlebay/notedown/internal/engine/schema"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = 1000
)

// Option configures an Editor during creation.
type Option func(*Editor)

// WithDocument sets the initial document.
func WithDocument(doc *schema.Node) Option {
	return func(e *Editor) {
		e.initDoc = doc
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.maxUndoEntries = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithReadOnly creates a read-only editor. Apply returns ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Editor) {
		e.readOnly = true
	}
}
