// Package errors provides custom error types for the Moneta API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound     = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCategory    = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
	ErrCategoryKindMismatch = &AppError{Code: "CATEGORY_KIND_MISMATCH", Message: "Category kind does not match the transaction type", StatusCode: http.StatusBadRequest}
)

// Credit card errors.
var (
	ErrCardNotFound    = &AppError{Code: "CARD_NOT_FOUND", Message: "Credit card not found", StatusCode: http.StatusNotFound}
	ErrCardExpired     = &AppError{Code: "CARD_EXPIRED", Message: "The credit card has expired", StatusCode: http.StatusBadRequest}
	ErrInvalidCardDays = &AppError{Code: "INVALID_CARD_DAYS", Message: "Payment day must be after the card closing day", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound          = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidDateFormat            = &AppError{Code: "INVALID_DATE_FORMAT", Message: "Invalid date format, use YYYY-MM-DD", StatusCode: http.StatusBadRequest}
	ErrFutureDateNotAllowed         = &AppError{Code: "FUTURE_DATE_NOT_ALLOWED", Message: "Transaction date cannot be in the future", StatusCode: http.StatusBadRequest}
	ErrRecurringInstallmentConflict = &AppError{Code: "RECURRING_INSTALLMENT_CONFLICT", Message: "Recurring transactions with multiple installments are not supported", StatusCode: http.StatusBadRequest}
)

// Recurring override errors.
var (
	ErrInvalidOverrideDate  = &AppError{Code: "INVALID_OVERRIDE_DATE", Message: "Override month cannot precede the transaction's start month", StatusCode: http.StatusBadRequest}
	ErrOverrideNotRecurring = &AppError{Code: "OVERRIDE_NOT_RECURRING", Message: "Amount overrides are only allowed for recurring transactions", StatusCode: http.StatusBadRequest}
)

var errCreditLimitExceeded = &AppError{Code: "CREDIT_LIMIT_EXCEEDED", Message: "This charge would exceed the card's credit limit", StatusCode: http.StatusBadRequest}

// CreditLimitExceeded builds a CREDIT_LIMIT_EXCEEDED error carrying the current
// balance, the prospective total after the charge, and the card's limit so the
// caller can display them.
func CreditLimitExceeded(balance, prospective, limit decimal.Decimal) *AppError {
	return WithMessage(errCreditLimitExceeded, fmt.Sprintf(
		"This charge would exceed the card's credit limit: current balance %s, new total %s, limit %s",
		balance.StringFixed(2), prospective.StringFixed(2), limit.StringFixed(2)))
}

// IsCreditLimitExceeded reports whether err is a CREDIT_LIMIT_EXCEEDED AppError.
func IsCreditLimitExceeded(err error) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == errCreditLimitExceeded.Code
}
