package model

import "fmt"

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrNotFound ErrorCode = "NOT_FOUND"
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the front-end JSON endpoints.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}
