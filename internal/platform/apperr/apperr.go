// Package apperr defines the error kinds shared by the portal's domains.
// Domain errors carry a kind (matched with errors.Is), a machine-readable
// code and a message that is safe to show to the user.
package apperr

import "errors"

var (
	// ErrValidation marks malformed or rejected user input. No state changes.
	ErrValidation = errors.New("validation failed")

	// ErrAuth marks a missing session, a wrong role, or an ownership mismatch.
	ErrAuth = errors.New("not authorized")

	// ErrNotFound marks an operation on a record that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a workflow transition attempted from the wrong state.
	ErrConflict = errors.New("conflict")
)

// Error is a classified domain error.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New builds a classified error. An empty code falls back to the kind's default.
func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(ErrValidation, code, message)
}

func NotFound(message string) *Error {
	return New(ErrNotFound, "not_found", message)
}

func Conflict(message string) *Error {
	return New(ErrConflict, "conflict", message)
}

// Auth builds an authorization error. Its message is for logs only.
func Auth(message string) *Error {
	return New(ErrAuth, "unauthorized", message)
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
