package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KIND_VALIDATION           ErrorKind = "validation_error"
	KIND_NOT_FOUND            ErrorKind = "not_found"
	KIND_CONFLICT             ErrorKind = "conflict"
	KIND_UNAUTHENTICATED      ErrorKind = "unauthenticated"
	KIND_FORBIDDEN            ErrorKind = "forbidden"
	KIND_UPSTREAM_UNAVAILABLE ErrorKind = "upstream_unavailable"
)

// APIError carries the failure taxonomy from the lifecycle managers out to
// the HTTP layer. Context holds retry-relevant detail, e.g. the remaining
// seating capacity on an availability conflict.
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Context JSONB     `json:"context,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KIND_VALIDATION:
		return http.StatusBadRequest
	case KIND_NOT_FOUND:
		return http.StatusNotFound
	case KIND_CONFLICT:
		return http.StatusConflict
	case KIND_UNAUTHENTICATED:
		return http.StatusUnauthorized
	case KIND_FORBIDDEN:
		return http.StatusForbidden
	case KIND_UPSTREAM_UNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(format string, args ...any) *APIError {
	return &APIError{Kind: KIND_VALIDATION, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *APIError {
	return &APIError{Kind: KIND_NOT_FOUND, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...any) *APIError {
	return &APIError{Kind: KIND_CONFLICT, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthenticatedError(format string, args ...any) *APIError {
	return &APIError{Kind: KIND_UNAUTHENTICATED, Message: fmt.Sprintf(format, args...)}
}

func NewForbiddenError(format string, args ...any) *APIError {
	return &APIError{Kind: KIND_FORBIDDEN, Message: fmt.Sprintf(format, args...)}
}

func NewUpstreamError(format string, args ...any) *APIError {
	return &APIError{Kind: KIND_UPSTREAM_UNAVAILABLE, Message: fmt.Sprintf(format, args...)}
}

func (e *APIError) WithContext(ctx JSONB) *APIError {
	e.Context = ctx
	return e
}

// AsAPIError unwraps err into an *APIError, falling back to a generic
// internal shape so handlers never leak raw driver errors.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
