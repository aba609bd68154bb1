// Package transaction implements the transactional mutation engine for
// the document model: primitive edit steps, atomic transactions, and
// position mapping.
//
// A Transaction is built against one document snapshot and applies its
// steps eagerly to a private copy; the editor then publishes the result
// in a single swap, so partial application is never observable. Every
// step yields a StepMap; the composed Mapping translates the selection
// and any externally tracked positions (such as an AI suggestion's
// insertion start) onto the new document version.
//
// Steps are invertible. The history package records the inverse steps
// of each transaction to implement undo.
package transaction
