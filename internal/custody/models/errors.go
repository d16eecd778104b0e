package models

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies custody-check failures.
type ErrorCategory string

const (
	// CategorySession means the session handshake never produced a usable cookie.
	CategorySession ErrorCategory = "session"

	// CategoryNetwork is a transport or HTTP-status failure talking to the jail service.
	CategoryNetwork ErrorCategory = "network"

	// CategoryIncompleteRoster means pagination stopped before the end-of-results signal.
	CategoryIncompleteRoster ErrorCategory = "incomplete_roster"

	// CategoryInsufficientData means a defendant name produced no lookup key.
	CategoryInsufficientData ErrorCategory = "insufficient_data"

	// CategoryAmbiguousMatch annotates an IN_CUSTODY verdict with several candidates.
	CategoryAmbiguousMatch ErrorCategory = "ambiguous_match"
)

// DetailInsufficientName is the verdict detail for defendants without a usable key.
const DetailInsufficientName = "insufficient name data"

// CustodyError wraps custody-check failures with a normalized category.
type CustodyError struct {
	Category   ErrorCategory
	Message    string
	Underlying error
	Retryable  bool
	// StatusCode is the HTTP status that caused a network error, if any.
	StatusCode int
	// Page is the roster page involved; for incomplete-roster errors it is
	// the number of pages fetched before the abort.
	Page int
}

// Error implements the error interface
func (e *CustodyError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("custody [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("custody [%s]: %s", e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *CustodyError) Unwrap() error {
	return e.Underlying
}

// NewSessionError reports a failed session handshake.
func NewSessionError(message string, underlying error) *CustodyError {
	return &CustodyError{Category: CategorySession, Message: message, Underlying: underlying}
}

// NewNetworkError reports a failed call. Transport failures, 408, 429 and
// 5xx responses are retryable; statusCode is zero for transport failures.
func NewNetworkError(message string, statusCode int, underlying error) *CustodyError {
	retryable := statusCode == 0 || statusCode == 408 || statusCode == 429 || statusCode >= 500
	return &CustodyError{
		Category:   CategoryNetwork,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
		StatusCode: statusCode,
	}
}

// NewIncompleteRosterError reports an aborted pagination.
func NewIncompleteRosterError(pagesFetched int, underlying error) *CustodyError {
	return &CustodyError{
		Category:   CategoryIncompleteRoster,
		Message:    fmt.Sprintf("roster pagination aborted after %d page(s)", pagesFetched),
		Underlying: underlying,
		Page:       pagesFetched,
	}
}

// NewInsufficientDataError is recorded on defendants that cannot be looked up.
func NewInsufficientDataError() *CustodyError {
	return &CustodyError{Category: CategoryInsufficientData, Message: DetailInsufficientName}
}

// NewAmbiguousMatchError is recorded on IN_CUSTODY verdicts with several candidates.
func NewAmbiguousMatchError(key string, candidates int) *CustodyError {
	return &CustodyError{
		Category: CategoryAmbiguousMatch,
		Message:  fmt.Sprintf("multiple candidates: %d roster entries match %q", candidates, key),
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var ce *CustodyError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// GetCategory extracts the outermost error category from an error.
func GetCategory(err error) ErrorCategory {
	var ce *CustodyError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}

// IsCategory reports whether any error in the chain has the category.
func IsCategory(err error, category ErrorCategory) bool {
	for err != nil {
		var ce *CustodyError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Category == category {
			return true
		}
		err = ce.Underlying
	}
	return false
}
