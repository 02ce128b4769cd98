package errors

import "fmt"

// ErrorCode represents a gmerge error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrAccess         ErrorCode = "ACCESS"          // 400: input unreadable/empty, output unwritable
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrValidation     ErrorCode = "VALIDATION"      // 422: assembled output failed sanity checks
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// GmergeError represents a structured error with code, status, and details.
type GmergeError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *GmergeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GmergeError {
	return &GmergeError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewAccess creates a 400 error for an input or output file that cannot be used.
// Access errors are fatal and raised before any transformation begins.
func NewAccess(path, reason string) *GmergeError {
	return &GmergeError{
		Code:    ErrAccess,
		Status:  400,
		Message: fmt.Sprintf("cannot use %s: %s", path, reason),
		Details: map[string]any{"path": path, "reason": reason},
	}
}

// NewNotFound creates a 404 error for a missing record.
func NewNotFound(identifier string) *GmergeError {
	return &GmergeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewValidation creates a 422 error for assembled output that failed a hard
// sanity check. Validation errors abort the run before anything is written.
func NewValidation(msg string) *GmergeError {
	return &GmergeError{
		Code:    ErrValidation,
		Status:  422,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GmergeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GmergeError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a GmergeError with the given code.
func Is(err error, code ErrorCode) bool {
	if gErr, ok := err.(*GmergeError); ok {
		return gErr.Code == code
	}
	return false
}
