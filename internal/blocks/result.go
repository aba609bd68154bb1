package blocks

import "fmt"

// ResultStatus indicates the outcome of a block command.
type ResultStatus uint8

const (
	// StatusOK indicates the command changed the document.
	StatusOK ResultStatus = iota
	// StatusNoOp indicates the command found no eligible target and did
	// nothing. The document is unchanged.
	StatusNoOp
	// StatusError indicates the command failed.
	StatusError
)

// String returns a string representation of the status.
func (s ResultStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOp:
		return "no-op"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of a block command.
type Result struct {
	// Status indicates the result status.
	Status ResultStatus

	// Error contains any error that occurred.
	Error error

	// Message is an optional status message.
	Message string
}

// IsOK returns true if the command changed the document.
func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

// DidNothing returns true if the command found no eligible target.
func (r Result) DidNothing() bool {
	return r.Status == StatusNoOp
}

// Success creates a successful result.
func Success() Result {
	return Result{Status: StatusOK}
}

// NoOp creates a no-operation result.
func NoOp() Result {
	return Result{Status: StatusNoOp}
}

// NoOpWithMessage creates a no-operation result with a message.
func NoOpWithMessage(msg string) Result {
	return Result{Status: StatusNoOp, Message: msg}
}

// Error wraps an error into an error result.
func Error(err error) Result {
	return Result{Status: StatusError, Error: err}
}

// Errorf creates an error result from a format string.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, Error: fmt.Errorf(format, args...)}
}
