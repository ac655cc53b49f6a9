package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrInternal   = errors.New("internal error")

	ErrAccountNotFound = errors.New("account not found")

	ErrConflict      = errors.New("account already exists")
	ErrEmailTaken    = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: username already in use", ErrConflict)

	ErrAuth               = errors.New("not authorized")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuth)
	ErrUnauthenticated    = fmt.Errorf("%w: authentication required", ErrAuth)
	ErrForbidden          = fmt.Errorf("%w: access forbidden", ErrAuth)
)

// FieldViolation describes one broken input rule.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every violated rule, ordered by reporting precedence.
// The first violation is the one surfaced by Error.
type ValidationError struct {
	Violations []FieldViolation
}

// NewValidationError builds a ValidationError with a single violation.
func NewValidationError(field, rule, message string) *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Rule: rule, Message: message}}}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	return e.Violations[0].Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InternalError wraps a primitive failure (store, hash, sign) that must not
// leak to clients.
type InternalError struct {
	Op  string
	Err error
}

// Internal wraps err as an InternalError for op. A nil err yields nil.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }
