package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrConfiguration    = errors.New("configuration error")
	ErrOperationTimeout = errors.New("operation deadline exceeded")
)

// TransportError wraps a connection, DNS, or IO level failure reaching a
// remote service. It is terminal for the call (and for a poll wait) and is
// never retried automatically.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError is returned for 401/403 responses.
type AuthError struct {
	Endpoint   string
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed calling %s (status %d)", e.Endpoint, e.StatusCode)
}

// RemoteError carries the remote service's own status code and message for
// any non-auth 4xx/5xx, and for remote-side FAILED/CANCELLED operations.
type RemoteError struct {
	StatusCode  int
	Message     string
	OperationID string
}

func (e *RemoteError) Error() string {
	if e.OperationID != "" {
		return fmt.Sprintf("remote service error (operation %s): %s", e.OperationID, e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote service error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote service error: %s", e.Message)
}

// TimeoutError reports a local deadline expiry. The remote job is not
// cancelled; the operation id lets a caller inspect it afterwards.
type TimeoutError struct {
	OperationID string
	Deadline    string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s did not finish within %s", e.OperationID, e.Deadline)
}

func (e *TimeoutError) Unwrap() error { return ErrOperationTimeout }
