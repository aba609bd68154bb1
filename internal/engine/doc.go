// Package engine provides the editor core: one document tree, its
// selection, and the serialized transaction pipeline that is the only
// write path to either.
//
// The engine is built on several sub-packages:
//
//   - schema: typed node/mark vocabulary and content grammar
//   - transaction: primitive steps, atomic transactions, position maps
//   - history: undo/redo stacks of inverse step lists
//
// All operations are safe for concurrent use; transactions apply one at
// a time and become visible in a single document swap. Observers run
// after publication without the editor lock, so they may apply
// follow-up transactions (pattern rules and the trigger-command
// controller both do).
package engine
