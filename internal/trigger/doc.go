// Package trigger implements the slash-command menu: a catalog of
// registered commands and a controller that opens, tracks, and commits
// the menu in response to editor events.
//
// The controller is a two-state machine. Typing "/" at the start of a
// textblock or after whitespace opens the menu; further typing narrows
// the query; moving the cursor away, typing a space, editing out the
// trigger character, or undoing closes it. Committing a command first
// deletes the "/query" text, then runs the command's handler against
// the cleaned document.
package trigger
