package extension

import "errors"

// Errors returned by the extension host.
var (
	// ErrHostClosed indicates use of a closed host.
	ErrHostClosed = errors.New("extension host is closed")
)
