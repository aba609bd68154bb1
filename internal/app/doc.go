// Package app assembles the editor from configuration: the engine,
// input rules, the slash menu, the AI session, Lua extensions, the
// keymap, and the document store. It owns document lifecycle (create,
// open, save, delete) and dispatches keymap chords to bound
// operations.
package app
