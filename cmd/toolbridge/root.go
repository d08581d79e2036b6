package toolbridge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/toolbridge/pkg/config"
	"github.com/liliang-cn/toolbridge/pkg/log"
)

var (
	cfgFile string
	debug   bool
	cfg     *config.Config
	version string = "dev"
)

var RootCmd = &cobra.Command{
	Use:   "toolbridge",
	Short: "toolbridge - MCP bridge to remote service tools",
	Long: `toolbridge is an MCP (Model Context Protocol) stdio server that exposes
remote services as callable tools: an asynchronous SQL query service with
submit/poll/fetch lifecycle handling, plus GitHub, Square, Plaid, and H2O
wrappers.
Every tool call returns one normalized envelope, success or failure.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if debug || cfg.Server.Debug {
			log.SetDebug(true)
		}
		return nil
	},
}

func Execute() error {
	return RootCmd.Execute()
}

// GetRootCmd returns the root cobra command for testing purposes.
func GetRootCmd() *cobra.Command {
	return RootCmd
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	version = v
	RootCmd.Version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the toolbridge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("toolbridge %s\n", version)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ./toolbridge.toml)")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(initCmd)
}
