package ai

import "errors"

// Errors returned by session operations.
var (
	// ErrSessionActive indicates a generation was requested while a
	// suggestion is already streaming or pending.
	ErrSessionActive = errors.New("suggestion session already active")

	// ErrNoSuggestion indicates an accept, reject, or modify with no
	// pending suggestion.
	ErrNoSuggestion = errors.New("no pending suggestion")

	// ErrNotInTextblock indicates the insertion point cannot hold text.
	ErrNotInTextblock = errors.New("cursor is not inside a text block")
)
