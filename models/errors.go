package models

import (
	"errors"
	"fmt"
)

// Error codes form the closed taxonomy used across the engine, the API,
// and the CLI. Every failure surfaced to a caller carries one of these.
const (
	ErrCodeInvalidURL    = "invalid_url"
	ErrCodeMissingDomain = "missing_domain"
	ErrCodeMissingPolicy = "missing_policy"
	ErrCodeFetch         = "fetch_error"
	ErrCodeValidation    = "validation"
	ErrCodeOther         = "other"
)

// HTTP-surface codes used only by the API middleware.
const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeRateLimited  = "rate_limited"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is the internal error type carrying a taxonomy code.
// It implements the error interface and supports error wrapping via Unwrap.
type Error struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *Error) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// NewError creates an Error with an explicit code.
func NewError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrInvalidURL reports an unparseable or non-http(s) URL.
func ErrInvalidURL(raw string) *Error {
	return &Error{Code: ErrCodeInvalidURL, Message: fmt.Sprintf("invalid url: %s", raw)}
}

// ErrMissingDomain reports a URL without a usable host.
func ErrMissingDomain() *Error {
	return &Error{Code: ErrCodeMissingDomain, Message: "missing domain in URL"}
}

// ErrMissingPolicy reports an extraction against a domain with no stored policy.
func ErrMissingPolicy(domain string) *Error {
	return &Error{Code: ErrCodeMissingPolicy, Message: fmt.Sprintf("no policy for domain %s", domain)}
}

// ErrFetch reports an exhausted fetch ladder or a transport failure.
func ErrFetch(message string, err error) *Error {
	return &Error{Code: ErrCodeFetch, Message: message, Err: err}
}

// ErrValidation reports a bad request, policy, or selector field.
func ErrValidation(field, why string) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf("%s: %s", field, why)}
}

// ErrOther wraps everything that has no more specific code.
func ErrOther(message string, err error) *Error {
	return &Error{Code: ErrCodeOther, Message: message, Err: err}
}

// CodeOf extracts the taxonomy code from any error chain.
// Errors that never passed through this package report ErrCodeOther.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeOther
}

// DetailOf converts any error into an API-facing ErrorDetail.
func DetailOf(err error) *ErrorDetail {
	var e *Error
	if errors.As(err, &e) {
		return e.ToDetail()
	}
	return &ErrorDetail{Code: ErrCodeOther, Message: err.Error()}
}
