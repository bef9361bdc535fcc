// Package errs defines the error taxonomy surfaced to users.
package errs

import (
	"errors"
	"fmt"
)

// Type categorizes an error by where it originated.
type Type string

const (
	// TypeValidation means required input was missing before any remote call.
	TypeValidation Type = "VALIDATION"
	// TypeDomain means the record store answered with an explicit error message.
	TypeDomain Type = "DOMAIN"
	// TypeRemote means the record store could not be reached or answered garbage.
	TypeRemote Type = "REMOTE"
	// TypeShare means the platform share capability rejected or cancelled a share.
	TypeShare Type = "SHARE"
)

// Error is a categorized error.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same type, so errors.Is(err, errs.Validation) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Type == e.Type
}

// Sentinels for errors.Is.
var (
	Validation = &Error{Type: TypeValidation}
	Domain     = &Error{Type: TypeDomain}
	Remote     = &Error{Type: TypeRemote}
	Share      = &Error{Type: TypeShare}
)

// NewValidation creates a validation error.
func NewValidation(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

// NewDomain creates an error carrying a record store message verbatim.
func NewDomain(message string) *Error {
	return &Error{Type: TypeDomain, Message: message}
}

// NewRemote wraps a transport failure.
func NewRemote(operation string, cause error) *Error {
	return &Error{Type: TypeRemote, Message: operation + " failed", Cause: cause}
}

// NewShare wraps a share failure.
func NewShare(cause error) *Error {
	return &Error{Type: TypeShare, Message: "sharing failed or was cancelled", Cause: cause}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, t Type) bool {
	e, ok := As(err)
	return ok && e.Type == t
}

// UserMessage collapses any error into the status line shown to the user.
// Validation and domain messages are shown verbatim; everything else is generic.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	e, ok := As(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}
	switch e.Type {
	case TypeValidation:
		return e.Message
	case TypeDomain:
		return "Error: " + e.Message
	case TypeShare:
		return "Sharing failed or was cancelled. You can copy the content manually."
	default:
		return "Could not reach the memory store. Please try again."
	}
}
