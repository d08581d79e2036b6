// Package h2o wraps an H2O cluster's REST API as tools. The upstream
// implementation kept a process-wide "are we connected" flag, which races
// against concurrent tool calls; here every call that needs the cluster
// establishes its own Session value by probing /3/Cloud, so there is no
// shared mutable connection state and no required call ordering.
package h2o

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/liliang-cn/toolbridge/pkg/config"
	"github.com/liliang-cn/toolbridge/pkg/domain"
	"github.com/liliang-cn/toolbridge/pkg/log"
	"github.com/liliang-cn/toolbridge/pkg/remote"
	"github.com/liliang-cn/toolbridge/pkg/tools"
)

type Service struct {
	client     *remote.Client
	clusterURL string
	logger     *slog.Logger
}

// Session describes one verified connection to the cluster. It is a plain
// value scoped to the call that created it.
type Session struct {
	ClusterURL    string    `json:"cluster_url"`
	Version       string    `json:"version"`
	BuildNumber   string    `json:"build_number"`
	CloudSize     int       `json:"cloud_size"`
	Healthy       bool      `json:"cloud_healthy"`
	Consensus     bool      `json:"consensus"`
	EstablishedAt time.Time `json:"established_at"`
}

func New(cfg config.H2OConfig) (*Service, error) {
	client, err := remote.New(remote.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		client:     client,
		clusterURL: cfg.BaseURL,
		logger:     log.WithComponent("h2o"),
	}, nil
}

func (s *Service) Tools() []tools.Tool {
	return []tools.Tool{
		&connectTool{service: s},
		&clusterStatusTool{service: s},
		&listModelsTool{service: s},
		&listFramesTool{service: s},
		&modelDetailsTool{service: s},
	}
}

type wireCloud struct {
	Version     string `json:"version"`
	BuildNumber string `json:"build_number"`
	CloudSize   int    `json:"cloud_size"`
	Healthy     bool   `json:"healthy"`
	Consensus   bool   `json:"consensus"`
	Nodes       []struct {
		Name    string `json:"h2o"`
		Healthy bool   `json:"healthy"`
	} `json:"nodes"`
}

// connect probes the cluster and returns a fresh session value.
func (s *Service) connect(ctx context.Context) (*Session, *wireCloud, error) {
	raw, err := s.client.Do(ctx, remote.Request{Endpoint: "/3/Cloud"})
	if err != nil {
		return nil, nil, err
	}

	var cloud wireCloud
	if err := json.Unmarshal(raw, &cloud); err != nil {
		return nil, nil, &domain.RemoteError{Message: fmt.Sprintf("malformed cloud response: %v", err)}
	}

	return &Session{
		ClusterURL:    s.clusterURL,
		Version:       cloud.Version,
		BuildNumber:   cloud.BuildNumber,
		CloudSize:     cloud.CloudSize,
		Healthy:       cloud.Healthy,
		Consensus:     cloud.Consensus,
		EstablishedAt: time.Now(),
	}, &cloud, nil
}

func (s *Service) clusterStatus(ctx context.Context) (map[string]interface{}, error) {
	session, cloud, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make([]map[string]interface{}, 0, len(cloud.Nodes))
	for _, n := range cloud.Nodes {
		nodes = append(nodes, map[string]interface{}{
			"name":    n.Name,
			"healthy": n.Healthy,
		})
	}

	return map[string]interface{}{
		"session": session,
		"cluster_status": map[string]interface{}{
			"node_count": len(cloud.Nodes),
			"nodes":      nodes,
		},
	}, nil
}

type wireModel struct {
	ModelID struct {
		Name string `json:"name"`
	} `json:"model_id"`
	Algo string `json:"algo"`
	Job  *struct {
		Status string `json:"status"`
	} `json:"job"`
}

func (s *Service) listModels(ctx context.Context) (map[string]interface{}, error) {
	session, _, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Do(ctx, remote.Request{Endpoint: "/3/Models"})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Models []wireModel `json:"models"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed models response: %v", err)}
	}

	byAlgorithm := map[string]int{}
	models := make([]map[string]interface{}, 0, len(resp.Models))
	for _, m := range resp.Models {
		algo := m.Algo
		if algo == "" {
			algo = "Unknown"
		}
		byAlgorithm[algo]++
		status := "Unknown"
		if m.Job != nil {
			status = m.Job.Status
		}
		models = append(models, map[string]interface{}{
			"model_id":  m.ModelID.Name,
			"algorithm": algo,
			"status":    status,
		})
	}

	return map[string]interface{}{
		"session": session,
		"models":  models,
		"summary": map[string]interface{}{
			"total":        len(models),
			"by_algorithm": byAlgorithm,
		},
	}, nil
}

type wireFrame struct {
	FrameID struct {
		Name string `json:"name"`
	} `json:"frame_id"`
	Rows     int64 `json:"rows"`
	Columns  int   `json:"column_count"`
	ByteSize int64 `json:"byte_size"`
	IsText   bool  `json:"is_text"`
}

func (s *Service) listFrames(ctx context.Context, limit int) (map[string]interface{}, error) {
	session, _, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("column_count", strconv.Itoa(0))

	raw, err := s.client.Do(ctx, remote.Request{Endpoint: "/3/Frames", Params: params})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Frames []wireFrame `json:"frames"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed frames response: %v", err)}
	}

	wire := resp.Frames
	if len(wire) > limit {
		wire = wire[:limit]
	}

	frames := make([]map[string]interface{}, 0, len(wire))
	for _, f := range wire {
		frames = append(frames, map[string]interface{}{
			"frame_id":  f.FrameID.Name,
			"rows":      f.Rows,
			"columns":   f.Columns,
			"byte_size": f.ByteSize,
		})
	}

	return map[string]interface{}{
		"session": session,
		"frames":  frames,
		"summary": map[string]int{"total": len(frames)},
	}, nil
}

func (s *Service) modelDetails(ctx context.Context, modelID string) (map[string]interface{}, error) {
	session, _, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Do(ctx, remote.Request{
		Endpoint: "/3/Models/" + url.PathEscape(modelID),
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Models []json.RawMessage `json:"models"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("malformed model response: %v", err)}
	}
	if len(resp.Models) == 0 {
		return nil, &domain.RemoteError{Message: fmt.Sprintf("model not found: %s", modelID)}
	}

	return map[string]interface{}{
		"session": session,
		"model":   resp.Models[0],
	}, nil
}
