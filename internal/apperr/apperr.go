// Package apperr defines the error taxonomy shared by the access-control
// core. Every failure here is caused by caller misuse or a policy violation,
// never by transient infrastructure trouble, so none of these errors are
// retryable.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError marks malformed input: a bad page range, an empty required
// field, an unknown enum value. The caller can recover by correcting input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
	}
	return "validation: " + e.Msg
}

// Validation builds a ValidationError without a field reference.
func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationField builds a ValidationError naming the offending field or
// identifier.
func ValidationField(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// InvalidStateError marks an operation against an entity in the wrong
// lifecycle state, e.g. approving an already-completed request. Definitive;
// never retried.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string {
	return "invalid state: " + e.Msg
}

// InvalidState builds an InvalidStateError.
func InvalidState(format string, args ...any) *InvalidStateError {
	return &InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError marks an actor lacking the required role. Surfaced
// distinctly so the UI can show a permissions message instead of a generic
// failure.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string {
	return "authorization: " + e.Msg
}

// Authorization builds an AuthorizationError.
func Authorization(format string, args ...any) *AuthorizationError {
	return &AuthorizationError{Msg: fmt.Sprintf(format, args...)}
}

// AggregateError marks a rejected batch operation. InvalidIDs lists every
// identifier that failed validation; the operation guarantees no partial
// effect occurred.
type AggregateError struct {
	Msg        string
	InvalidIDs []string
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("aggregate: %s: [%s]", e.Msg, strings.Join(e.InvalidIDs, ", "))
}

// Aggregate builds an AggregateError over the given identifiers.
func Aggregate(msg string, invalidIDs []string) *AggregateError {
	return &AggregateError{Msg: msg, InvalidIDs: invalidIDs}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInvalidState reports whether err is (or wraps) an InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsAuthorization reports whether err is (or wraps) an AuthorizationError.
func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}
