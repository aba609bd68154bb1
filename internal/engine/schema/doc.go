// Package schema defines the typed document model: node and mark
// vocabulary, the per-type child-content grammar, and the serialized
// document format.
//
// A document is a single owned tree of Node values rooted at a "doc"
// node. Nodes are immutable by convention; every mutation builds new
// nodes along the changed path, so document values behave as sequential
// snapshots and can be held across edits.
//
// Positions over a document are token offsets: entering or leaving a
// non-text node costs one token and each text rune costs one token. The
// transaction package resolves positions against this addressing scheme.
package schema
