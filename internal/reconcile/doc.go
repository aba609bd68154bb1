// Package reconcile converts generated model output into document
// nodes. Structured JSON payloads map each declared block onto the
// schema with per-block error containment: a malformed entry degrades
// to a plain paragraph instead of discarding the payload. Plain text
// goes through a markdown-flavored line parser that recovers headings,
// lists, quotes, fenced code, and inline marks.
package reconcile
