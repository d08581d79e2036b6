// Package remote provides the single outbound call abstraction shared by
// synchronous tool handlers and the long-running operation poller. Every
// failure is classified into one of three kinds: transport (connection, DNS,
// IO), auth (401/403), or remote service (any other non-2xx, carrying the
// remote status code and message).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/liliang-cn/toolbridge/pkg/domain"
)

// Config contains configuration for a remote service client.
type Config struct {
	BaseURL    string            `json:"base_url"`
	AuthHeader string            `json:"auth_header"` // defaults to "Authorization"
	AuthValue  string            `json:"auth_value"`  // e.g. "Bearer <token>"
	Headers    map[string]string `json:"headers"`
	Timeout    time.Duration     `json:"timeout"`
	MaxBody    int64             `json:"max_body"`
	UserAgent  string            `json:"user_agent"`
}

// Client makes authenticated JSON calls against one remote service.
// It is safe for concurrent use; all fields are read-only after New.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	authHeader string
	authValue  string
	headers    map[string]string
	maxBody    int64
	userAgent  string
	timeout    time.Duration
}

// Request describes one outbound call. Timeout, when set, overrides the
// client default for this call only; it never spans more than one call.
type Request struct {
	Endpoint string
	Method   string
	Body     any
	Params   url.Values
	Timeout  time.Duration
}

// New creates a client for the given service configuration.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: remote base URL is required", domain.ErrConfiguration)
	}
	base, err := url.Parse(config.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", domain.ErrConfiguration, config.BaseURL)
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxBody == 0 {
		config.MaxBody = 10 * 1024 * 1024 // 10MB default
	}
	if config.UserAgent == "" {
		config.UserAgent = "toolbridge/1.0"
	}
	if config.AuthHeader == "" {
		config.AuthHeader = "Authorization"
	}

	return &Client{
		base:       base,
		httpClient: &http.Client{},
		authHeader: config.AuthHeader,
		authValue:  config.AuthValue,
		headers:    config.Headers,
		maxBody:    config.MaxBody,
		userAgent:  config.UserAgent,
		timeout:    config.Timeout,
	}, nil
}

// Do issues one call and returns the raw JSON response body. Errors are
// always one of domain.TransportError, domain.AuthError, or
// domain.RemoteError.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.resolve(req.Endpoint, req.Params)

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &domain.TransportError{Endpoint: req.Endpoint, Err: fmt.Errorf("encode request body: %w", err)}
		}
		bodyReader = bytes.NewReader(encoded)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, target, bodyReader)
	if err != nil {
		return nil, &domain.TransportError{Endpoint: req.Endpoint, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.authValue != "" {
		httpReq.Header.Set(c.authHeader, c.authValue)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.TransportError{Endpoint: req.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, &domain.TransportError{Endpoint: req.Endpoint, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &domain.AuthError{Endpoint: req.Endpoint, StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &domain.RemoteError{
			StatusCode: resp.StatusCode,
			Message:    remoteMessage(payload, resp.Status),
		}
	}

	return payload, nil
}

// resolve joins the endpoint path onto the base URL and attaches query
// parameters. The endpoint is escaped path text (callers run dynamic
// segments through url.PathEscape); JoinPath keeps it that way instead of
// escaping a second time.
func (c *Client) resolve(endpoint string, params url.Values) string {
	u := c.base.JoinPath(endpoint)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// remoteMessage extracts the service-supplied error text from a failure
// body, falling back to the HTTP status line.
func remoteMessage(payload []byte, status string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return status
}

// IsTransport reports whether err is a transport-kind failure.
func IsTransport(err error) bool {
	var te *domain.TransportError
	return errors.As(err, &te)
}
