package quest

import (
	"errors"
	"fmt"
)

// Kind is the machine-readable category of an Error.
type Kind string

const (
	// KindValidation covers structural outline violations and requests that
	// do not match the journey's current state.
	KindValidation Kind = "validation"
	// KindReference marks an unresolved symbolic id during a build. It is a
	// validator/builder mismatch — a bug, never a user input problem.
	KindReference Kind = "reference"
	// KindConflict covers completed-journey guards and lost concurrency races.
	KindConflict Kind = "conflict"
	// KindAuthorization marks a journey ownership mismatch.
	KindAuthorization Kind = "authorization"
	// KindNotFound marks a missing adventure, node, choice or journey.
	KindNotFound Kind = "not_found"
	// KindInternal covers infrastructure and content-generation failures.
	KindInternal Kind = "internal"
)

// Error carries a machine-readable kind plus a human message. Outline
// rejections additionally carry the violated invariants.
type Error struct {
	Kind       Kind        `json:"kind"`
	Message    string      `json:"message"`
	Violations []Violation `json:"violations,omitempty"`
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("quest: %s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("quest: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the Kind from err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NotFound builds a not_found error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict builds a conflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Unauthorized builds an authorization error.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

// Invalid builds a validation error without violations.
func Invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// InvalidOutline builds a validation error carrying the violated invariants.
func InvalidOutline(violations []Violation) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    fmt.Sprintf("outline violates %d structural invariant(s)", len(violations)),
		Violations: violations,
	}
}

// Reference builds a reference error wrapping its cause.
func Reference(msg string, cause error) *Error {
	return &Error{Kind: KindReference, Message: msg, cause: cause}
}

// Internal builds an internal error wrapping its cause.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}
