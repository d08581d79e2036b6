// Package longrun drives remote operations that a service accepts
// asynchronously: submit the job, poll its status until a terminal state or
// a deadline, then fetch the result exactly once. Each operation's handle is
// owned by the goroutine running its poll loop, so any number of operations
// can be in flight without shared state.
package longrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/liliang-cn/toolbridge/pkg/domain"
	"github.com/liliang-cn/toolbridge/pkg/log"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultDeadline     = 300 * time.Second
	DefaultMaxInFlight  = 8
)

// SubmitFunc starts the remote job and returns its operation id.
type SubmitFunc func(ctx context.Context) (string, error)

// StatusFunc reports the current state of the operation and, for FAILED or
// CANCELLED, the remote-supplied reason string.
type StatusFunc func(ctx context.Context, id string) (domain.OperationState, string, error)

// FetchFunc retrieves the raw result of a succeeded operation.
type FetchFunc func(ctx context.Context, id string) (*RawResult, error)

// Spec describes one pollable operation over a remote service.
type Spec struct {
	Submit       SubmitFunc
	Status       StatusFunc
	Fetch        FetchFunc
	PollInterval time.Duration
	Deadline     time.Duration
}

// Outcome is returned when an operation reaches SUCCEEDED within its
// deadline.
type Outcome struct {
	Handle domain.Handle
	Result *domain.ResultSet
	Stats  *domain.QueryStats
}

// Options configures a Poller.
type Options struct {
	// MaxInFlight bounds the number of concurrently active poll loops so a
	// burst of long-running calls cannot fan out without limit against one
	// remote service.
	MaxInFlight int64
	Logger      *slog.Logger
}

// Poller runs operation specs. Safe for concurrent use.
type Poller struct {
	inflight *semaphore.Weighted
	logger   *slog.Logger
}

// New creates a poller.
func New(opts Options) *Poller {
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithComponent("longrun")
	}
	return &Poller{
		inflight: semaphore.NewWeighted(opts.MaxInFlight),
		logger:   logger,
	}
}

// MapState normalizes a remote status string. Unrecognized states are
// treated as still running so the loop keeps waiting for a state it knows.
func MapState(remote string) domain.OperationState {
	switch remote {
	case "QUEUED", "SUBMITTED", "PENDING":
		return domain.StateSubmitted
	case "SUCCEEDED":
		return domain.StateSucceeded
	case "FAILED":
		return domain.StateFailed
	case "CANCELLED", "CANCELED":
		return domain.StateCancelled
	default:
		return domain.StateRunning
	}
}

// Run executes one operation to completion. On SUCCEEDED it returns the
// assembled result; on FAILED or CANCELLED it returns a domain.RemoteError
// carrying the remote reason and operation id; past the deadline it returns
// a domain.TimeoutError with the operation id. The remote job is never
// cancelled on local timeout; callers must treat a timeout as "outcome
// unknown" and may inspect the id through a status-lookup tool. A transport
// error during any poll step aborts the wait immediately.
func (p *Poller) Run(ctx context.Context, spec Spec) (*Outcome, error) {
	if spec.PollInterval <= 0 {
		spec.PollInterval = DefaultPollInterval
	}
	if spec.Deadline <= 0 {
		spec.Deadline = DefaultDeadline
	}

	if err := p.inflight.Acquire(ctx, 1); err != nil {
		return nil, &domain.TransportError{Endpoint: "submit", Err: err}
	}
	defer p.inflight.Release(1)

	id, err := spec.Submit(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, &domain.RemoteError{Message: "submit returned no operation id"}
	}

	handle := domain.Handle{
		ID:          id,
		SubmittedAt: time.Now(),
		State:       domain.StateSubmitted,
	}
	p.logger.Debug("operation submitted", "id", id, "deadline", spec.Deadline)

	reason := ""
	for time.Since(handle.SubmittedAt) < spec.Deadline {
		state, stateReason, err := spec.Status(ctx, id)
		if err != nil {
			// No retry of the poll step: a transient blip aborts the wait
			// rather than giving the operation more time.
			return nil, err
		}
		advance(&handle, state)
		if handle.State.Terminal() {
			reason = stateReason
			break
		}

		select {
		case <-ctx.Done():
			return nil, &domain.TransportError{Endpoint: "status", Err: ctx.Err()}
		case <-time.After(spec.PollInterval):
		}
	}

	switch handle.State {
	case domain.StateSucceeded:
		raw, err := spec.Fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		result, stats := assemble(raw)
		p.logger.Debug("operation succeeded", "id", id, "rows", result.RowCount)
		return &Outcome{Handle: handle, Result: result, Stats: stats}, nil

	case domain.StateFailed, domain.StateCancelled:
		if reason == "" {
			reason = "Unknown error"
		}
		p.logger.Warn("operation failed remotely", "id", id, "state", handle.State, "reason", reason)
		return nil, &domain.RemoteError{
			Message:     fmt.Sprintf("operation %s: %s", handle.State, reason),
			OperationID: id,
		}

	default:
		advance(&handle, domain.StateTimedOut)
		p.logger.Warn("operation deadline exceeded", "id", id, "deadline", spec.Deadline)
		return nil, &domain.TimeoutError{OperationID: id, Deadline: spec.Deadline.String()}
	}
}

// advance moves the handle forward, never backward. A remote that reports a
// stale earlier state is ignored rather than rewinding the handle.
func advance(h *domain.Handle, next domain.OperationState) {
	if h.State == next {
		return
	}
	if h.State.CanTransition(next) {
		h.State = next
	}
}
