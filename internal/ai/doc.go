// Package ai manages provisional model suggestions inside the editor.
// A session streams generated text into the document under the
// suggestion mark, tracks its range through concurrent edits, and
// resolves it on accept (reconciled into document structure), reject
// (removed, consumed selection restored), or modify (regenerated from
// the draft and an instruction).
package ai
