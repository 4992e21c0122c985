package compiler

import "errors"

// Compile-time failure classes. Every *Error unwraps to one of these.
var (
	ErrNoFiles         = errors.New("no files received")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidMode     = errors.New("invalid conversion mode")
	ErrToolMissing     = errors.New("required tool missing")
	ErrNoJobs          = errors.New("no jobs generated")
)

// Error is a compile-time rejection carrying the message shown to the user.
type Error struct {
	Kind      error
	Message   string
	WrongType bool
}

// Error returns the user-facing message.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the failure class for errors.Is.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}
