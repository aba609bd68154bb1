package transaction

import "errors"

// Errors returned by position resolution and step application.
var (
	// ErrPosOutOfRange indicates a position outside the document.
	ErrPosOutOfRange = errors.New("position out of range")

	// ErrRangeInvalid indicates a range whose ends are reversed, cross a
	// block boundary where they must not, or target the wrong node kind.
	ErrRangeInvalid = errors.New("invalid range")

	// ErrNoNodeAt indicates no node starts at the given position.
	ErrNoNodeAt = errors.New("no node at position")
)
