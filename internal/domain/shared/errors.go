// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")

	// Warehouse execution errors
	ErrTransient      = errors.New("transient execution error")
	ErrConfiguration  = errors.New("warehouse configuration error")
	ErrQuerySyntax    = errors.New("query syntax error")
	ErrSchemaMismatch = errors.New("schema mismatch")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "taxonomy", "warehouse"
	Op      string // Operation that failed, e.g., "GetCore", "GetHydrated"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Student domain errors
var (
	ErrStudentNotFound = NewDomainError("student", "GetCore", ErrNotFound, "student not found")
	ErrInvalidUserID   = NewDomainError("student", "Validate", ErrInvalidID, "invalid user ID")
)

// Taxonomy domain errors
var (
	ErrRoleNotFound  = NewDomainError("taxonomy", "GetCore", ErrNotFound, "role not found")
	ErrJDNotFound    = NewDomainError("taxonomy", "GetCore", ErrNotFound, "job description not found")
	ErrInvalidRoleID = NewDomainError("taxonomy", "Validate", ErrInvalidID, "invalid role ID")
	ErrInvalidJDID   = NewDomainError("taxonomy", "Validate", ErrInvalidID, "invalid job description ID")
)

// Template domain errors
var (
	ErrTemplateNotFound  = NewDomainError("template", "GetCore", ErrNotFound, "template not found")
	ErrInvalidTemplateID = NewDomainError("template", "Validate", ErrInvalidID, "invalid template ID")
)

// Warehouse errors
var (
	ErrWarehouseUnavailable = NewDomainError("warehouse", "Execute", ErrTransient, "warehouse is unavailable")
	ErrWarehouseTimeout     = NewDomainError("warehouse", "Execute", ErrTimeout, "warehouse query timeout")
	ErrUnknownEntityType    = NewDomainError("warehouse", "Compose", ErrInvalidInput, "unknown entity type")
	ErrRelationShape        = NewDomainError("warehouse", "Hydrate", ErrSchemaMismatch, "child relation has unexpected shape")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsTransient checks if the error is a transient warehouse failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsConfiguration checks if the error is a warehouse configuration failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsQuerySyntax checks if the error is a query syntax failure.
func IsQuerySyntax(err error) bool {
	return errors.Is(err, ErrQuerySyntax)
}

// IsSchemaMismatch checks if the error is a schema mismatch failure.
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsFatal checks if the error must not be retried.
func IsFatal(err error) bool {
	return IsConfiguration(err) || IsQuerySyntax(err) || IsSchemaMismatch(err)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
