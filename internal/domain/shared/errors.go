package shared

import "errors"

// ErrorKind classifies domain errors so callers at the boundary can decide
// how to surface them without knowing every code.
type ErrorKind string

const (
	// KindValidation marks caller-supplied data that violates a field constraint.
	KindValidation ErrorKind = "validation"
	// KindState marks an operation that is not permitted in the entity's current state.
	KindState ErrorKind = "state"
	// KindConsistency marks a retryable conflict such as a concurrent modification.
	KindConsistency ErrorKind = "consistency"
	// KindNotFound marks a missing resource.
	KindNotFound ErrorKind = "not_found"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so wrapped
// copies created with WithMessage still match the package-level sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the caller should re-read and retry under a new transaction.
func (e *DomainError) Retryable() bool {
	return e.Kind == KindConsistency
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, Kind: e.Kind}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindState,
	}
}

// NewValidationError creates a domain error for rejected input
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindValidation}
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Code: "NOT_FOUND", Message: "Resource not found", Kind: KindNotFound}
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = &DomainError{Code: "CONCURRENCY_CONFLICT", Message: "Resource was modified by another process", Kind: KindConsistency}
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")

	// Validation errors shared by the ledger and document engines
	ErrInvalidAmount   = NewValidationError("INVALID_AMOUNT", "Amount cannot be negative")
	ErrInvalidQuantity = NewValidationError("INVALID_QUANTITY", "Quantity cannot be negative")
	ErrInvalidPrice    = NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	ErrInvalidRate     = NewValidationError("INVALID_RATE", "Rate must be between 0 and 1")
	ErrInvalidDiscount = NewValidationError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
)

// IsRetryable reports whether err is a consistency conflict the caller may retry.
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable()
	}
	return false
}
