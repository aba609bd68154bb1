// Package blocks implements the block command library: insert,
// transform, reorder, duplicate, and delete operations on the block
// containing the selection, plus attribute toggles for task and toggle
// items and inline mark toggling.
//
// Commands never return position errors to the caller. A command whose
// target does not exist, or whose result the document grammar would
// reject, reports a no-op result and leaves the document untouched.
package blocks
