// Package history maintains the undo and redo stacks of the editor.
//
// Each entry pairs the inverse steps of an applied transaction with the
// original steps, so undo applies the inverse and redo re-applies the
// original. Recording a new entry invalidates the redo stack, and the
// stack depth is capped.
package history
