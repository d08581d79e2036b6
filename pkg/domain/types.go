package domain

import "time"

// OperationState is the lifecycle state of a remote asynchronous operation.
// SUBMITTED and RUNNING are transient; the other four are terminal and
// mutually exclusive.
type OperationState string

const (
	StateSubmitted OperationState = "SUBMITTED"
	StateRunning   OperationState = "RUNNING"
	StateSucceeded OperationState = "SUCCEEDED"
	StateFailed    OperationState = "FAILED"
	StateCancelled OperationState = "CANCELLED"
	StateTimedOut  OperationState = "TIMED_OUT"
)

// Terminal reports whether no further transition can occur from s.
func (s OperationState) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled, StateTimedOut:
		return true
	}
	return false
}

// rank orders states along the only legal path
// SUBMITTED -> RUNNING -> terminal. Terminal states share a rank since they
// are mutually exclusive endpoints rather than steps.
func (s OperationState) rank() int {
	switch s {
	case StateSubmitted:
		return 0
	case StateRunning:
		return 1
	default:
		return 2
	}
}

// CanTransition reports whether moving from s to next preserves the
// forward-only invariant.
func (s OperationState) CanTransition(next OperationState) bool {
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Column describes one column of a result set.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultSet is the assembled output of a succeeded operation. Column count
// is fixed once determined; every row carries a value (possibly "") for
// every column.
type ResultSet struct {
	Columns  []Column            `json:"columns"`
	Rows     []map[string]string `json:"rows"`
	RowCount int                 `json:"row_count"`
}

// QueryStats holds execution statistics reported by the remote service.
// Missing statistics default to zero rather than being omitted, matching
// the wire shape downstream consumers already parse.
type QueryStats struct {
	DataScannedBytes    int64   `json:"data_scanned_bytes"`
	DataScannedMB       float64 `json:"data_scanned_mb"`
	ExecutionTimeMillis int64   `json:"execution_time_ms"`
	QueueTimeMillis     int64   `json:"query_queue_time_ms"`
	PlanningTimeMillis  int64   `json:"query_planning_time_ms"`
	ServiceTimeMillis   int64   `json:"service_processing_time_ms"`
}

// Handle identifies one submitted remote operation. A handle is owned
// exclusively by the poll loop that created it.
type Handle struct {
	ID          string
	SubmittedAt time.Time
	State       OperationState
}
