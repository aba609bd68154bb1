// Package rules implements typing-driven auto-formatting. A rule
// engine observes the editor and, after each typed insertion, matches a
// prioritized pattern set against the text between the block start and
// the cursor. Block rules convert a paragraph into another structure
// when its leading text is a markdown-style marker ("# ", "- [ ] ",
// "> "); inline rules convert trailing marker-wrapped spans ("**b**")
// into marked text.
//
// Rules fire at most once per insertion and never inside plain-text
// blocks, on history replays, or on programmatic transactions.
package rules
