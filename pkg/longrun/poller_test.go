package longrun

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/toolbridge/pkg/domain"
)

// fakeOperation scripts one remote operation: a sequence of states returned
// by successive status calls, then a fetch result.
type fakeOperation struct {
	mu          sync.Mutex
	id          string
	states      []domain.OperationState
	reason      string
	statusCalls int
	fetchCalls  int
	statusErr   func(call int) error
	result      *RawResult
}

func (f *fakeOperation) spec(interval, deadline time.Duration) Spec {
	return Spec{
		Submit: func(ctx context.Context) (string, error) {
			return f.id, nil
		},
		Status: func(ctx context.Context, id string) (domain.OperationState, string, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			call := f.statusCalls
			f.statusCalls++
			if f.statusErr != nil {
				if err := f.statusErr(call); err != nil {
					return "", "", err
				}
			}
			if call >= len(f.states) {
				call = len(f.states) - 1
			}
			return f.states[call], f.reason, nil
		},
		Fetch: func(ctx context.Context, id string) (*RawResult, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.fetchCalls++
			return f.result, nil
		},
		PollInterval: interval,
		Deadline:     deadline,
	}
}

func cells(values ...string) []Cell {
	row := make([]Cell, len(values))
	for i, v := range values {
		row[i] = Cell{Value: v}
	}
	return row
}

func TestRunLifecycleToSuccess(t *testing.T) {
	op := &fakeOperation{
		id:     "q-1",
		states: []domain.OperationState{domain.StateRunning, domain.StateRunning, domain.StateSucceeded},
		result: &RawResult{
			Columns: []domain.Column{{Name: "a", Type: "varchar"}, {Name: "b", Type: "varchar"}},
			Rows: [][]Cell{
				cells("1", "x"),
				cells("2", "y"),
				cells("3", "z"),
			},
		},
	}

	poller := New(Options{})
	outcome, err := poller.Run(context.Background(), op.spec(5*time.Millisecond, time.Second))
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, "q-1", outcome.Handle.ID)
	assert.Equal(t, domain.StateSucceeded, outcome.Handle.State)
	assert.Len(t, outcome.Result.Columns, 2)
	assert.Equal(t, 3, outcome.Result.RowCount)
	assert.Len(t, outcome.Result.Rows, 3)
	for _, row := range outcome.Result.Rows {
		assert.Len(t, row, 2)
		assert.Contains(t, row, "a")
		assert.Contains(t, row, "b")
	}
	assert.Equal(t, 1, op.fetchCalls)
	assert.NotNil(t, outcome.Stats)
}

func TestRunTimeoutBounds(t *testing.T) {
	const (
		interval = 20 * time.Millisecond
		deadline = 100 * time.Millisecond
	)
	op := &fakeOperation{
		id:     "q-slow",
		states: []domain.OperationState{domain.StateRunning},
	}

	poller := New(Options{})
	start := time.Now()
	outcome, err := poller.Run(context.Background(), op.spec(interval, deadline))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, errors.Is(err, domain.ErrOperationTimeout))

	var timeoutErr *domain.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "q-slow", timeoutErr.OperationID)

	// The poller gives up at or after the deadline but before one more
	// full poll interval has passed (plus scheduling slack).
	assert.GreaterOrEqual(t, elapsed, deadline)
	assert.Less(t, elapsed, deadline+interval+50*time.Millisecond)
	assert.Equal(t, 0, op.fetchCalls)
}

func TestRunRemoteFailureCarriesReason(t *testing.T) {
	op := &fakeOperation{
		id:     "q-bad",
		states: []domain.OperationState{domain.StateRunning, domain.StateFailed},
		reason: "SYNTAX_ERROR: line 1:8: Column 'x' cannot be resolved",
	}

	poller := New(Options{})
	outcome, err := poller.Run(context.Background(), op.spec(5*time.Millisecond, time.Second))
	require.Error(t, err)
	assert.Nil(t, outcome)

	var remoteErr *domain.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, "q-bad", remoteErr.OperationID)
	assert.Contains(t, remoteErr.Message, "SYNTAX_ERROR")
	assert.Contains(t, remoteErr.Message, "FAILED")
	assert.Equal(t, 0, op.fetchCalls)
}

func TestRunCancelledIsTerminal(t *testing.T) {
	op := &fakeOperation{
		id:     "q-cancelled",
		states: []domain.OperationState{domain.StateCancelled},
		reason: "Query cancelled by user",
	}

	poller := New(Options{})
	_, err := poller.Run(context.Background(), op.spec(5*time.Millisecond, time.Second))
	require.Error(t, err)

	var remoteErr *domain.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Contains(t, remoteErr.Message, "CANCELLED")
	assert.Contains(t, remoteErr.Message, "cancelled by user")
}

func TestRunTransportErrorAbortsPoll(t *testing.T) {
	op := &fakeOperation{
		id:     "q-blip",
		states: []domain.OperationState{domain.StateRunning},
		statusErr: func(call int) error {
			if call == 1 {
				return &domain.TransportError{Endpoint: "/queries/q-blip", Err: errors.New("connection reset")}
			}
			return nil
		},
	}

	poller := New(Options{})
	_, err := poller.Run(context.Background(), op.spec(5*time.Millisecond, time.Second))
	require.Error(t, err)

	var transportErr *domain.TransportError
	require.True(t, errors.As(err, &transportErr))
	// The blip aborts the wait immediately; the poll step is not retried.
	assert.Equal(t, 2, op.statusCalls)
	assert.Equal(t, 0, op.fetchCalls)
}

func TestRunSubmitWithoutIDFails(t *testing.T) {
	poller := New(Options{})
	_, err := poller.Run(context.Background(), Spec{
		Submit: func(ctx context.Context) (string, error) { return "", nil },
		Status: func(ctx context.Context, id string) (domain.OperationState, string, error) {
			t.Fatal("status must not be called when submit returns no id")
			return "", "", nil
		},
		Fetch:        func(ctx context.Context, id string) (*RawResult, error) { return nil, nil },
		PollInterval: time.Millisecond,
		Deadline:     time.Second,
	})
	require.Error(t, err)

	var remoteErr *domain.RemoteError
	require.True(t, errors.As(err, &remoteErr))
}

func TestRunConcurrentOperationsStayIsolated(t *testing.T) {
	fast := &fakeOperation{
		id:     "op-fast",
		states: []domain.OperationState{domain.StateSucceeded},
		result: &RawResult{
			Columns: []domain.Column{{Name: "n", Type: "bigint"}},
			Rows:    [][]Cell{cells("1")},
		},
	}
	failing := &fakeOperation{
		id:     "op-fail",
		states: []domain.OperationState{domain.StateRunning, domain.StateFailed},
		reason: "out of capacity",
	}
	slow := &fakeOperation{
		id:     "op-slow",
		states: []domain.OperationState{domain.StateRunning},
	}

	poller := New(Options{})

	var wg sync.WaitGroup
	results := make([]error, 3)
	outcomes := make([]*Outcome, 3)

	run := func(i int, op *fakeOperation, deadline time.Duration) {
		defer wg.Done()
		outcomes[i], results[i] = poller.Run(context.Background(),
			op.spec(10*time.Millisecond, deadline))
	}

	wg.Add(3)
	go run(0, fast, time.Second)
	go run(1, failing, time.Second)
	go run(2, slow, 60*time.Millisecond)
	wg.Wait()

	require.NoError(t, results[0])
	assert.Equal(t, "op-fast", outcomes[0].Handle.ID)
	assert.Equal(t, 1, outcomes[0].Result.RowCount)

	var remoteErr *domain.RemoteError
	require.True(t, errors.As(results[1], &remoteErr))
	assert.Equal(t, "op-fail", remoteErr.OperationID)

	var timeoutErr *domain.TimeoutError
	require.True(t, errors.As(results[2], &timeoutErr))
	assert.Equal(t, "op-slow", timeoutErr.OperationID)
}

func TestRunBoundsInFlightOperations(t *testing.T) {
	const limit = 2
	var mu sync.Mutex
	active, peak := 0, 0

	mkSpec := func(i int) Spec {
		return Spec{
			Submit: func(ctx context.Context) (string, error) {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()
				return fmt.Sprintf("op-%d", i), nil
			},
			Status: func(ctx context.Context, id string) (domain.OperationState, string, error) {
				time.Sleep(20 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return domain.StateSucceeded, "", nil
			},
			Fetch: func(ctx context.Context, id string) (*RawResult, error) {
				return &RawResult{}, nil
			},
			PollInterval: time.Millisecond,
			Deadline:     time.Second,
		}
	}

	poller := New(Options{MaxInFlight: limit})
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := poller.Run(context.Background(), mkSpec(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, limit)
}

func TestMapState(t *testing.T) {
	assert.Equal(t, domain.StateSubmitted, MapState("QUEUED"))
	assert.Equal(t, domain.StateSubmitted, MapState("PENDING"))
	assert.Equal(t, domain.StateSucceeded, MapState("SUCCEEDED"))
	assert.Equal(t, domain.StateFailed, MapState("FAILED"))
	assert.Equal(t, domain.StateCancelled, MapState("CANCELLED"))
	assert.Equal(t, domain.StateCancelled, MapState("CANCELED"))
	assert.Equal(t, domain.StateRunning, MapState("RUNNING"))
	assert.Equal(t, domain.StateRunning, MapState("SOMETHING_NEW"))
}
