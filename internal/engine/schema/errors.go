package schema

import "fmt"

// ValidationError reports content that violates the node-content grammar.
// A transaction step that produces one is rejected before any state is
// published.
type ValidationError struct {
	// Node is the type of the node whose content is illegal.
	Node NodeType

	// Msg describes the violation.
	Msg string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Node, e.Msg)
}
