// Package apierr defines the tagged error type returned by API handlers.
// Errors carry a machine-readable kind that is mapped to an HTTP status
// exactly once, at the response boundary.
package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindRateLimited
	KindUpstream
	KindPartial
	KindInternal
)

// Error is a classified API failure. Message is safe to show to clients;
// wrapped internal errors are logged server-side only.
type Error struct {
	Kind    Kind
	Code    string // optional machine-readable code, e.g. UPGRADE_REQUIRED
	Message string
	Details any
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// Status maps an error kind to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusServiceUnavailable
	case KindPartial:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

type envelope struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Write serializes the error envelope to the response writer.
func Write(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status())
	json.NewEncoder(w).Encode(envelope{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	})
}

// Common constructors used across handlers.

func NotFound(what string) *Error {
	return New(KindNotFound, what+" not found")
}

func BadRequest(message string) *Error {
	return New(KindValidation, message)
}

func Unauthorized() *Error {
	return New(KindAuthentication, "unauthorized")
}

func Forbidden(message string) *Error {
	return New(KindAuthorization, message)
}

func Internal(err error) *Error {
	return Wrap(KindInternal, "internal error", err)
}

func Upstream(err error) *Error {
	return Wrap(KindUpstream, "service temporarily unavailable", err)
}
