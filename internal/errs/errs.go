// Package errs provides the code-typed errors shared across the service.
package errs

import (
	"errors"
	"net/http"
	"strings"
)

// Code identifies an error category. The HTTP layer maps codes to status
// codes; everything below it only deals in codes.
type Code string

const (
	// CodeAuth indicates missing or malformed service credentials.
	CodeAuth Code = "auth"
	// CodeUnavailable indicates the remote data source is unreachable or
	// misconfigured.
	CodeUnavailable Code = "source_unavailable"
	// CodeInvalid indicates a client-supplied identifier failed validation.
	CodeInvalid Code = "bad_request"
	// CodeUpstream indicates a proxied remote resource errored.
	CodeUpstream Code = "upstream"
)

// E carries a code and message alongside an optional cause.
type E struct {
	Code    Code
	Message string

	cause error
}

// New constructs an error with the given code and message.
func New(code Code, message string) *E {
	return &E{Code: code, Message: strings.TrimSpace(message), cause: nil}
}

// Wrap constructs an error with the given code and message around a cause.
func Wrap(code Code, message string, cause error) *E {
	return &E{Code: code, Message: strings.TrimSpace(message), cause: cause}
}

// Error renders "code: message: cause" with empty parts omitted.
func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := []string{string(e.Code)}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.cause != nil {
		parts = append(parts, e.cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *E) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// CodeOf extracts the Code from err, or empty string when err carries none.
func CodeOf(err error) Code {
	var e *E
	if errors.As(err, &e) && e != nil {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the response status the HTTP layer should use.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalid:
		return http.StatusBadRequest
	case CodeUnavailable, CodeUpstream:
		return http.StatusBadGateway
	case CodeAuth:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
