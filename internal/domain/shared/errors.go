package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so errors built
// with NewDomainError match the sentinels below through errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeLockNotObtained        = "LOCK_NOT_OBTAINED"
	CodeInvalidUnit            = "INVALID_UNIT"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInvalidPrice           = "INVALID_PRICE"
	CodeInvalidCurrency        = "INVALID_CURRENCY"
	CodeCurrencyMismatch       = "CURRENCY_MISMATCH"
	CodeOrderNotEditable       = "ORDER_NOT_EDITABLE"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeOverAllocation         = "OVER_ALLOCATION"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeAmountExceedsRemaining = "AMOUNT_EXCEEDS_REMAINING"
	CodeIncompleteAllocation   = "INCOMPLETE_ALLOCATION"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrLockNotObtained     = NewDomainError(CodeLockNotObtained, "Order is being modified by another request")
)

// Ledger errors
var (
	ErrInvalidUnit            = NewDomainError(CodeInvalidUnit, "Unrecognized quantity unit")
	ErrInvalidQuantity        = NewDomainError(CodeInvalidQuantity, "Quantity must not be negative")
	ErrInvalidPrice           = NewDomainError(CodeInvalidPrice, "Price per ton must be positive")
	ErrInvalidCurrency        = NewDomainError(CodeInvalidCurrency, "Unsupported currency")
	ErrCurrencyMismatch       = NewDomainError(CodeCurrencyMismatch, "Payment currency does not match the target")
	ErrOrderNotEditable       = NewDomainError(CodeOrderNotEditable, "Order cannot be modified in its current status")
	ErrInvalidTransition      = NewDomainError(CodeInvalidTransition, "Order status transition is not allowed")
	ErrOverAllocation         = NewDomainError(CodeOverAllocation, "Allocated quantity exceeds the requested quantity")
	ErrInvalidAmount          = NewDomainError(CodeInvalidAmount, "Payment amount must be positive")
	ErrAmountExceedsRemaining = NewDomainError(CodeAmountExceedsRemaining, "Payment amount exceeds the remaining balance")
	ErrIncompleteAllocation   = NewDomainError(CodeIncompleteAllocation, "Not every order line is fully allocated")
)
