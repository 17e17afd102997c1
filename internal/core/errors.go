package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers test with errors.Is; the HTTP layer maps each kind
// to a status code.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
)

// FieldViolation names one rejected input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a payload.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Message returns the first violation, which is what clients display.
func (e *ValidationError) Message() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	return e.Violations[0].Message
}

func (e *ValidationError) add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Message: message}}}
}

// KindError pairs an error kind with a message that is safe to show clients.
type KindError struct {
	kind error
	msg  string
}

func (e *KindError) Error() string { return e.msg }

func (e *KindError) Unwrap() error { return e.kind }

// Kind returns the sentinel this error belongs to.
func (e *KindError) Kind() error { return e.kind }

// Errorf formats a client-facing message for the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &KindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing resource by its display name.
func NotFound(resource string) error {
	return Errorf(ErrNotFound, "%s not found", resource)
}

// PublicMessage extracts the client-facing message from err, falling back
// to the kind's generic text.
func PublicMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message()
	}
	var kerr *KindError
	if errors.As(err, &kerr) {
		return kerr.msg
	}
	for _, kind := range []error{ErrAuthentication, ErrNotFound, ErrConflict} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal server error"
}
