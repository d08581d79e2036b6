package query

import "github.com/liliang-cn/toolbridge/pkg/domain"

// Wire types for the remote query service. Optional fields are pointers so
// absent, null, and zero stay distinguishable at the decode boundary;
// conversion to the payload types defaults each missing value explicitly.

type submitRequest struct {
	SQL       string `json:"sql"`
	Database  string `json:"database"`
	Workgroup string `json:"workgroup"`
}

type submitResponse struct {
	QueryID string `json:"query_id"`
}

type wireStats struct {
	DataScannedBytes    *int64 `json:"data_scanned_bytes"`
	EngineTimeMillis    *int64 `json:"engine_execution_time_ms"`
	QueueTimeMillis     *int64 `json:"query_queue_time_ms"`
	PlanningTimeMillis  *int64 `json:"query_planning_time_ms"`
	ServiceTimeMillis   *int64 `json:"service_processing_time_ms"`
}

type executionStatus struct {
	QueryID           string     `json:"query_id"`
	State             string     `json:"state"`
	StateChangeReason string     `json:"state_change_reason"`
	Query             string     `json:"query"`
	Database          string     `json:"database"`
	Workgroup         string     `json:"workgroup"`
	SubmittedAt       string     `json:"submitted_at"`
	CompletedAt       *string    `json:"completed_at"`
	Statistics        *wireStats `json:"statistics"`
}

// resultsResponse may omit column metadata entirely; the poller then falls
// back to treating the first row as an implicit header.
type resultsResponse struct {
	Columns []domain.Column `json:"columns"`
	Rows    [][]*string     `json:"rows"`
}

type wireDatabase struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LocationURI string `json:"location_uri"`
	TableCount  int    `json:"table_count"`
}

type databasesResponse struct {
	Databases []wireDatabase `json:"databases"`
}

type wireTableColumn struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment"`
}

type wireTable struct {
	Name          string            `json:"name"`
	Database      string            `json:"database"`
	TableType     string            `json:"table_type"`
	Location      string            `json:"location"`
	Columns       []wireTableColumn `json:"columns"`
	PartitionKeys []wireTableColumn `json:"partition_keys"`
	Parameters    map[string]string `json:"parameters"`
	CreatedAt     *string           `json:"created_at"`
	UpdatedAt     *string           `json:"updated_at"`
}

type tablesResponse struct {
	Tables []wireTable `json:"tables"`
}

// Payload types returned inside the success envelope.

// ExecutionBlock identifies the remote query execution in a payload.
type ExecutionBlock struct {
	QueryExecutionID string `json:"query_execution_id"`
	Status           string `json:"status"`
	Query            string `json:"query,omitempty"`
	Database         string `json:"database,omitempty"`
	Workgroup        string `json:"workgroup,omitempty"`
}

// QueryPayload is the execute_query success payload.
type QueryPayload struct {
	QueryExecution ExecutionBlock     `json:"query_execution"`
	Results        *domain.ResultSet  `json:"results"`
	Statistics     *domain.QueryStats `json:"statistics"`
}

// StatusPayload is the get_query_execution success payload.
type StatusPayload struct {
	QueryExecution    ExecutionBlock     `json:"query_execution"`
	State             string             `json:"state"`
	StateChangeReason string             `json:"state_change_reason,omitempty"`
	SubmittedAt       string             `json:"submitted_at,omitempty"`
	CompletedAt       string             `json:"completed_at,omitempty"`
	Statistics        *domain.QueryStats `json:"statistics"`
}

// statsFromWire converts remote statistics, defaulting every missing value
// to zero rather than omitting the field.
func statsFromWire(ws *wireStats) *domain.QueryStats {
	stats := &domain.QueryStats{}
	if ws == nil {
		return stats
	}
	if ws.DataScannedBytes != nil {
		stats.DataScannedBytes = *ws.DataScannedBytes
	}
	if ws.EngineTimeMillis != nil {
		stats.ExecutionTimeMillis = *ws.EngineTimeMillis
	}
	if ws.QueueTimeMillis != nil {
		stats.QueueTimeMillis = *ws.QueueTimeMillis
	}
	if ws.PlanningTimeMillis != nil {
		stats.PlanningTimeMillis = *ws.PlanningTimeMillis
	}
	if ws.ServiceTimeMillis != nil {
		stats.ServiceTimeMillis = *ws.ServiceTimeMillis
	}
	return stats
}
