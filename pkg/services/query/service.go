// Package query exposes an asynchronous SQL execution service as tools.
// execute_query drives the full submit/poll/fetch lifecycle through the
// longrun poller; get_query_execution is the separate status lookup for
// operations that outlived their local deadline.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/liliang-cn/toolbridge/pkg/config"
	"github.com/liliang-cn/toolbridge/pkg/domain"
	"github.com/liliang-cn/toolbridge/pkg/log"
	"github.com/liliang-cn/toolbridge/pkg/longrun"
	"github.com/liliang-cn/toolbridge/pkg/remote"
	"github.com/liliang-cn/toolbridge/pkg/tools"
)

const maxFetchRows = 1000

// Service holds the remote client and poll settings for the query service.
type Service struct {
	client       *remote.Client
	poller       *longrun.Poller
	database     string
	workgroup    string
	pollInterval time.Duration
	deadline     time.Duration
	logger       *slog.Logger
}

// New builds the service. A missing base URL is a configuration error.
func New(cfg config.QueryConfig, pollCfg config.PollerConfig, poller *longrun.Poller) (*Service, error) {
	client, err := remote.New(remote.Config{
		BaseURL:   cfg.BaseURL,
		AuthValue: bearer(cfg.APIKey),
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		client:       client,
		poller:       poller,
		database:     cfg.Database,
		workgroup:    cfg.Workgroup,
		pollInterval: pollCfg.PollInterval,
		deadline:     pollCfg.Deadline,
		logger:       log.WithComponent("query"),
	}, nil
}

func bearer(key string) string {
	if key == "" {
		return ""
	}
	return "Bearer " + key
}

// Tools returns every tool the service contributes to the registry.
func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		&executeQueryTool{service: s},
		&getQueryExecutionTool{service: s},
		&listDatabasesTool{service: s},
		&listTablesTool{service: s},
		&getTableMetadataTool{service: s},
	}
}

// runQuery executes the full lifecycle for one SQL statement.
func (s *Service) runQuery(ctx context.Context, sql, database, workgroup string) (*QueryPayload, error) {
	if database == "" {
		database = s.database
	}
	if workgroup == "" {
		workgroup = s.workgroup
	}

	s.logger.Info("executing query", "database", database, "workgroup", workgroup, "sql", truncate(sql, 100))

	outcome, err := s.poller.Run(ctx, longrun.Spec{
		Submit: func(ctx context.Context) (string, error) {
			return s.submit(ctx, sql, database, workgroup)
		},
		Status:       s.status,
		Fetch:        s.fetchResults,
		PollInterval: s.pollInterval,
		Deadline:     s.deadline,
	})
	if err != nil {
		return nil, err
	}

	return &QueryPayload{
		QueryExecution: ExecutionBlock{
			QueryExecutionID: outcome.Handle.ID,
			Status:           string(outcome.Handle.State),
			Query:            sql,
			Database:         database,
			Workgroup:        workgroup,
		},
		Results:    outcome.Result,
		Statistics: outcome.Stats,
	}, nil
}

func (s *Service) submit(ctx context.Context, sql, database, workgroup string) (string, error) {
	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/queries",
		Method:   "POST",
		Body: submitRequest{
			SQL:       sql,
			Database:  database,
			Workgroup: workgroup,
		},
	})
	if err != nil {
		return "", err
	}

	var resp submitResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.RemoteError{Message: fmt.Sprintf("malformed submit response: %v", err)}
	}
	return resp.QueryID, nil
}

func (s *Service) status(ctx context.Context, id string) (domain.OperationState, string, error) {
	exec, err := s.execution(ctx, id)
	if err != nil {
		return "", "", err
	}
	return longrun.MapState(exec.State), exec.StateChangeReason, nil
}

func (s *Service) execution(ctx context.Context, id string) (*executionStatus, error) {
	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/queries/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}

	var exec executionStatus
	if err := json.Unmarshal(raw, &exec); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed status response: %v", err), OperationID: id}
	}
	return &exec, nil
}

func (s *Service) fetchResults(ctx context.Context, id string) (*longrun.RawResult, error) {
	params := url.Values{}
	params.Set("max_results", strconv.Itoa(maxFetchRows))

	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/queries/" + url.PathEscape(id) + "/results",
		Params:   params,
	})
	if err != nil {
		return nil, err
	}

	var resp resultsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed results response: %v", err), OperationID: id}
	}

	rows := make([][]longrun.Cell, len(resp.Rows))
	for i, wireRow := range resp.Rows {
		cells := make([]longrun.Cell, len(wireRow))
		for j, v := range wireRow {
			if v == nil {
				cells[j] = longrun.Cell{Null: true}
			} else {
				cells[j] = longrun.Cell{Value: *v}
			}
		}
		rows[i] = cells
	}

	// Execution statistics live on the status endpoint; one more lookup so
	// the payload can carry them (zeroed when the remote omits them).
	exec, err := s.execution(ctx, id)
	if err != nil {
		return nil, err
	}

	return &longrun.RawResult{
		Columns: resp.Columns,
		Rows:    rows,
		Stats:   statsFromWire(exec.Statistics),
	}, nil
}

// lookupExecution serves the get_query_execution tool.
func (s *Service) lookupExecution(ctx context.Context, id string) (*StatusPayload, error) {
	exec, err := s.execution(ctx, id)
	if err != nil {
		return nil, err
	}

	payload := &StatusPayload{
		QueryExecution: ExecutionBlock{
			QueryExecutionID: exec.QueryID,
			Status:           string(longrun.MapState(exec.State)),
			Query:            exec.Query,
			Database:         exec.Database,
			Workgroup:        exec.Workgroup,
		},
		State:             string(longrun.MapState(exec.State)),
		StateChangeReason: exec.StateChangeReason,
		SubmittedAt:       exec.SubmittedAt,
		Statistics:        statsFromWire(exec.Statistics),
	}
	if exec.CompletedAt != nil {
		payload.CompletedAt = *exec.CompletedAt
	}
	return payload, nil
}

func (s *Service) listDatabases(ctx context.Context) (map[string]interface{}, error) {
	raw, err := s.client.Do(ctx, remote.Request{Endpoint: "/catalog/databases"})
	if err != nil {
		return nil, err
	}

	var resp databasesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed catalog response: %v", err)}
	}

	totalTables := 0
	for _, db := range resp.Databases {
		totalTables += db.TableCount
	}

	return map[string]interface{}{
		"databases": resp.Databases,
		"summary": map[string]int{
			"total_databases": len(resp.Databases),
			"total_tables":    totalTables,
		},
	}, nil
}

func (s *Service) listTables(ctx context.Context, database string, limit int) (map[string]interface{}, error) {
	if database == "" {
		database = s.database
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/catalog/databases/" + url.PathEscape(database) + "/tables",
		Params:   params,
	})
	if err != nil {
		return nil, err
	}

	var resp tablesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed catalog response: %v", err)}
	}

	tables := resp.Tables
	if len(tables) > limit {
		tables = tables[:limit]
	}

	return map[string]interface{}{
		"tables":   tables,
		"database": database,
		"summary": map[string]int{
			"total_tables":  len(tables),
			"limit_applied": limit,
		},
	}, nil
}

func (s *Service) tableMetadata(ctx context.Context, database, table string) (map[string]interface{}, error) {
	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/catalog/databases/" + url.PathEscape(database) + "/tables/" + url.PathEscape(table),
	})
	if err != nil {
		return nil, err
	}

	var meta wireTable
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed catalog response: %v", err)}
	}

	return map[string]interface{}{
		"table_metadata": meta,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// clampLimit keeps the table listing limit inside the schema's bounds.
func clampLimit(v float64) int {
	return int(math.Min(math.Max(v, 1), 1000))
}
