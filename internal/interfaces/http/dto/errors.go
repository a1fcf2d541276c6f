package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidUnit     = "ERR_INVALID_UNIT"
	ErrCodeInvalidQuantity = "ERR_INVALID_QUANTITY"
	ErrCodeInvalidPrice    = "ERR_INVALID_PRICE"
	ErrCodeInvalidCurrency = "ERR_INVALID_CURRENCY"
	ErrCodeInvalidAmount   = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidName     = "ERR_INVALID_NAME"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when a collection changed under the writer
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeLockNotObtained is used when the order lock stayed busy
	ErrCodeLockNotObtained = "ERR_LOCK_NOT_OBTAINED"
)

// Business rule error codes
const (
	ErrCodeOrderNotEditable       = "ERR_ORDER_NOT_EDITABLE"
	ErrCodeInvalidTransition      = "ERR_INVALID_TRANSITION"
	ErrCodeOverAllocation         = "ERR_OVER_ALLOCATION"
	ErrCodeAmountExceedsRemaining = "ERR_AMOUNT_EXCEEDS_REMAINING"
	ErrCodeIncompleteAllocation   = "ERR_INCOMPLETE_ALLOCATION"
	ErrCodeCurrencyMismatch       = "ERR_CURRENCY_MISMATCH"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidUnit:     http.StatusBadRequest,
	ErrCodeInvalidQuantity: http.StatusBadRequest,
	ErrCodeInvalidPrice:    http.StatusBadRequest,
	ErrCodeInvalidCurrency: http.StatusBadRequest,
	ErrCodeInvalidAmount:   http.StatusBadRequest,
	ErrCodeInvalidName:     http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeLockNotObtained:     http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeOrderNotEditable:       http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition:      http.StatusUnprocessableEntity,
	ErrCodeOverAllocation:         http.StatusUnprocessableEntity,
	ErrCodeAmountExceedsRemaining: http.StatusUnprocessableEntity,
	ErrCodeIncompleteAllocation:   http.StatusUnprocessableEntity,
	ErrCodeCurrencyMismatch:       http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"UNAUTHORIZED":             ErrCodeUnauthorized,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_NAME":             ErrCodeInvalidName,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"LOCK_NOT_OBTAINED":        ErrCodeLockNotObtained,
	"INVALID_UNIT":             ErrCodeInvalidUnit,
	"INVALID_QUANTITY":         ErrCodeInvalidQuantity,
	"INVALID_PRICE":            ErrCodeInvalidPrice,
	"INVALID_CURRENCY":         ErrCodeInvalidCurrency,
	"INVALID_AMOUNT":           ErrCodeInvalidAmount,
	"CURRENCY_MISMATCH":        ErrCodeCurrencyMismatch,
	"ORDER_NOT_EDITABLE":       ErrCodeOrderNotEditable,
	"INVALID_TRANSITION":       ErrCodeInvalidTransition,
	"OVER_ALLOCATION":          ErrCodeOverAllocation,
	"AMOUNT_EXCEEDS_REMAINING": ErrCodeAmountExceedsRemaining,
	"INCOMPLETE_ALLOCATION":    ErrCodeIncompleteAllocation,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
