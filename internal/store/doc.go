// Package store persists documents on disk. Each document body lives
// in its own JSON file named by a generated id; a manifest file holds
// titles and timestamps and is patched in place on every change.
package store
