package tools

import (
	"errors"
	"time"

	"github.com/liliang-cn/toolbridge/pkg/domain"
)

// Envelope is the only shape ever returned across the system boundary.
// Success and failure envelopes are identical in structure regardless of
// which handler or failure path produced them.
type Envelope struct {
	Success     bool        `json:"success"`
	Payload     interface{} `json:"payload,omitempty"`
	Error       string      `json:"error,omitempty"`
	Tool        string      `json:"tool,omitempty"`
	OperationID string      `json:"operation_id,omitempty"`
	Timestamp   string      `json:"timestamp"`
}

// SuccessEnvelope wraps a handler payload.
func SuccessEnvelope(payload interface{}) Envelope {
	return Envelope{
		Success:   true,
		Payload:   payload,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// FailureEnvelope wraps any error from the taxonomy. Errors that carry an
// operation id (remote failures and local timeouts) surface it so the
// caller can inspect the operation through a status-lookup tool.
func FailureEnvelope(tool string, err error) Envelope {
	env := Envelope{
		Success:   false,
		Error:     err.Error(),
		Tool:      tool,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	var remoteErr *domain.RemoteError
	var timeoutErr *domain.TimeoutError
	switch {
	case errors.As(err, &remoteErr):
		env.OperationID = remoteErr.OperationID
	case errors.As(err, &timeoutErr):
		env.OperationID = timeoutErr.OperationID
	}
	return env
}
