package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/liliang-cn/toolbridge/pkg/domain"
	"github.com/liliang-cn/toolbridge/pkg/log"
)

// DispatcherConfig contains configuration for the dispatcher.
type DispatcherConfig struct {
	// CallsPerMinute rate-limits invocations across all tools; zero disables
	// the limiter.
	CallsPerMinute int `json:"calls_per_minute"`
	BurstSize      int `json:"burst_size"`
}

// Dispatcher routes a tool name plus arguments to the matching handler and
// guarantees exactly one envelope per call. No error or panic from a
// handler ever escapes Invoke.
type Dispatcher struct {
	registry *Registry
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, config *DispatcherConfig) *Dispatcher {
	var limiter *rate.Limiter
	if config != nil && config.CallsPerMinute > 0 {
		burst := config.BurstSize
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(config.CallsPerMinute)),
			burst,
		)
	}

	return &Dispatcher{
		registry: registry,
		limiter:  limiter,
		logger:   log.WithComponent("dispatcher"),
	}
}

// Invoke looks up the tool, validates the arguments, runs the handler, and
// normalizes whatever happens into an envelope.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]interface{}) (env Envelope) {
	requestID := uuid.New().String()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", "tool", name, "request", requestID, "panic", r)
			env = FailureEnvelope(name, fmt.Errorf("tool '%s' failed unexpectedly: %v", name, r))
		}
	}()

	tool, exists := d.registry.Get(name)
	if !exists {
		return FailureEnvelope(name, fmt.Errorf("%w: %s", domain.ErrUnknownTool, name))
	}

	if d.limiter != nil && !d.limiter.Allow() {
		return FailureEnvelope(name, fmt.Errorf("rate limit exceeded for tool '%s'", name))
	}

	if err := checkRequired(tool.Parameters(), args); err != nil {
		return FailureEnvelope(name, err)
	}
	if err := tool.Validate(args); err != nil {
		return FailureEnvelope(name, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err))
	}

	d.logger.Debug("invoking tool", "tool", name, "request", requestID)

	payload, err := tool.Execute(ctx, args)
	if err != nil {
		d.logger.Warn("tool failed", "tool", name, "request", requestID,
			"elapsed", time.Since(start), "error", err)
		return FailureEnvelope(name, err)
	}

	d.logger.Debug("tool completed", "tool", name, "request", requestID,
		"elapsed", time.Since(start))
	return SuccessEnvelope(payload)
}

// checkRequired rejects calls missing a required argument before any
// remote service is touched.
func checkRequired(params ToolParameters, args map[string]interface{}) error {
	for _, name := range params.Required {
		value, present := args[name]
		if !present || value == nil {
			return fmt.Errorf("%w: missing required argument '%s'", domain.ErrInvalidArgument, name)
		}
		if s, ok := value.(string); ok && s == "" {
			return fmt.Errorf("%w: required argument '%s' is empty", domain.ErrInvalidArgument, name)
		}
	}
	return nil
}
