// Package apperror defines the domain error taxonomy shared by handlers,
// middleware and repositories. Each error carries the HTTP status it should
// map to and a short machine-readable code; the central error handler turns
// them into the JSON envelope.
package apperror

import "net/http"

const (
	CodeValidation     = "validation_error"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeForbiddenField = "forbidden_field"
	CodeNotFound       = "not_found"
	CodeTokenExpired   = "token_expired"
	CodeTokenInvalid   = "token_invalid"
	CodeDelivery       = "delivery_error"
	CodeInternal       = "internal_error"
)

// Error is a domain error with an HTTP status attached.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds an Error with an explicit status. Use it for errors whose
// status depends on the flow (e.g. token errors are 401 on protected
// routes but 400 on the refresh endpoint).
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Validation signals malformed input or a violated field constraint.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, CodeValidation, message)
}

// Unauthorized signals bad credentials or a missing/unusable token.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden signals a role restriction.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message)
}

// ForbiddenField signals an attempt to write a protected field.
func ForbiddenField(message string) *Error {
	return New(http.StatusForbidden, CodeForbiddenField, message)
}

// NotFound signals that no matching active row exists.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message)
}

// Delivery signals a failure handing mail to the transport.
func Delivery(message string) *Error {
	return New(http.StatusInternalServerError, CodeDelivery, message)
}

// TokenExpired signals a token past its expiry.
func TokenExpired(status int, message string) *Error {
	return New(status, CodeTokenExpired, message)
}

// TokenInvalid signals a signature, format or type mismatch.
func TokenInvalid(status int, message string) *Error {
	return New(status, CodeTokenInvalid, message)
}
