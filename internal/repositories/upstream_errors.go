package repositories

import "fmt"

// UpstreamErrorCode enumerates failure causes when calling the business API.
type UpstreamErrorCode string

const (
	// UpstreamErrorUnknown represents an unspecified failure.
	UpstreamErrorUnknown UpstreamErrorCode = "upstream_unknown"
	// UpstreamErrorNotFound indicates the referenced entity does not exist.
	UpstreamErrorNotFound UpstreamErrorCode = "upstream_not_found"
	// UpstreamErrorInvalid indicates the upstream rejected the request payload.
	UpstreamErrorInvalid UpstreamErrorCode = "upstream_invalid"
	// UpstreamErrorUnavailable indicates a transport failure or 5xx response.
	UpstreamErrorUnavailable UpstreamErrorCode = "upstream_unavailable"
)

// UpstreamError wraps business-API call failures with machine readable codes.
type UpstreamError struct {
	Op      string
	Code    UpstreamErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewUpstreamError constructs a typed upstream error.
func NewUpstreamError(op string, code UpstreamErrorCode, message string, err error) *UpstreamError {
	if message == "" {
		message = string(code)
	}
	return &UpstreamError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
