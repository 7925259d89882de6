package apiclient

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to classify a failure returned by Send.
var (
	// ErrHTTPStatus matches any *StatusError.
	ErrHTTPStatus = errors.New("http status error")

	// ErrTransport matches any *TransportError.
	ErrTransport = errors.New("transport error")

	// ErrUnsupportedMethod is returned when a Descriptor names a verb the
	// client does not issue. No request is made.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrInvalidDescriptor is returned for descriptors that fail validation
	// for any reason other than the method.
	ErrInvalidDescriptor = errors.New("invalid request descriptor")
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Code int
	// Body holds the raw response body, which may be empty or non-JSON.
	Body []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! Status: %d", e.Code)
}

// Is makes errors.Is(err, ErrHTTPStatus) true for any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Transport failure stages.
const (
	OpDo     = "do"
	OpRead   = "read"
	OpDecode = "decode"
)

// TransportError reports a failure to complete the exchange: connection
// problems, an aborted context, an unreadable body, or a 2xx body that is not
// JSON.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) true for any TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// StatusCode extracts the HTTP status from err, if it carries one.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
