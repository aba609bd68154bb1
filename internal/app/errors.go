package app

import "errors"

// Errors returned by application operations.
var (
	// ErrNoDocument indicates no document is open.
	ErrNoDocument = errors.New("no document is open")

	// ErrUnboundKey indicates a key chord with no binding.
	ErrUnboundKey = errors.New("key is not bound")

	// ErrUnknownCommand indicates an unrecognized command id.
	ErrUnknownCommand = errors.New("unknown command")
)
