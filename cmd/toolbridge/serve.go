package toolbridge

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/toolbridge/pkg/log"
	"github.com/liliang-cn/toolbridge/pkg/longrun"
	"github.com/liliang-cn/toolbridge/pkg/mcpserver"
	"github.com/liliang-cn/toolbridge/pkg/services/github"
	"github.com/liliang-cn/toolbridge/pkg/services/h2o"
	"github.com/liliang-cn/toolbridge/pkg/services/plaid"
	"github.com/liliang-cn/toolbridge/pkg/services/query"
	"github.com/liliang-cn/toolbridge/pkg/services/square"
	"github.com/liliang-cn/toolbridge/pkg/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve configured tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		registry, err := buildRegistry()
		if err != nil {
			return err
		}
		if registry.Count() == 0 {
			return fmt.Errorf("no services configured; set at least one base_url in the config")
		}

		dispatcher := tools.NewDispatcher(registry, &tools.DispatcherConfig{
			CallsPerMinute: cfg.Dispatcher.CallsPerMinute,
			BurstSize:      cfg.Dispatcher.BurstSize,
		})

		server := mcpserver.New(cfg.Server.Name, version, registry, dispatcher)
		return server.Run(ctx)
	},
}

// buildRegistry registers the tools of every service with a configured base
// URL. Unconfigured services are skipped with a warning rather than
// failing startup, matching how the upstream servers degrade when a
// credential set is absent.
func buildRegistry() (*tools.Registry, error) {
	logger := log.WithComponent("serve")
	registry := tools.NewRegistry()

	poller := longrun.New(longrun.Options{
		MaxInFlight: cfg.Poller.MaxInFlight,
	})

	if cfg.Query.BaseURL != "" {
		service, err := query.New(cfg.Query, cfg.Poller, poller)
		if err != nil {
			return nil, err
		}
		if err := registerAll(registry, service.Tools()); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("query service not configured, skipping its tools")
	}

	if cfg.GitHub.BaseURL != "" && cfg.GitHub.Token != "" {
		service, err := github.New(cfg.GitHub)
		if err != nil {
			return nil, err
		}
		if err := registerAll(registry, service.Tools()); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("github service not configured, skipping its tools")
	}

	if cfg.Square.BaseURL != "" && cfg.Square.AccessToken != "" {
		service, err := square.New(cfg.Square)
		if err != nil {
			return nil, err
		}
		if err := registerAll(registry, service.Tools()); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("square service not configured, skipping its tools")
	}

	if cfg.Plaid.BaseURL != "" && cfg.Plaid.ClientID != "" && cfg.Plaid.Secret != "" {
		service, err := plaid.New(cfg.Plaid)
		if err != nil {
			return nil, err
		}
		if err := registerAll(registry, service.Tools()); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("plaid service not configured, skipping its tools")
	}

	if cfg.H2O.BaseURL != "" {
		service, err := h2o.New(cfg.H2O)
		if err != nil {
			return nil, err
		}
		if err := registerAll(registry, service.Tools()); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("h2o service not configured, skipping its tools")
	}

	return registry, nil
}

func registerAll(registry *tools.Registry, list []tools.Tool) error {
	for _, tool := range list {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
