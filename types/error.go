package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Storage and lookup error codes
const (
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"
	ErrStorageFailure    ErrorCode = "STORAGE_FAILURE"
	ErrMalformedDocument ErrorCode = "MALFORMED_DOCUMENT"
	ErrInvalidInput      ErrorCode = "INVALID_REQUEST"
	ErrStoreClosed       ErrorCode = "STORE_CLOSED"
	ErrUnsupported       ErrorCode = "UNSUPPORTED"
	ErrInternalError     ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
// Every public operation of the engine reports failures as *Error so callers
// can branch on the kind of failure instead of parsing strings.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Entity     string    `json:"entity,omitempty"`
	Operation  string    `json:"operation,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithEntity records the entity id the failed operation was acting on.
func (e *Error) WithEntity(entity string) *Error {
	e.Entity = entity
	return e
}

// WithOperation records the name of the failed operation.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithHTTPStatus sets the HTTP status code used by the API layer.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err is a not-found failure (entity or session).
func IsNotFound(err error) bool {
	code := GetErrorCode(err)
	return code == ErrNotFound || code == ErrSessionNotFound
}
