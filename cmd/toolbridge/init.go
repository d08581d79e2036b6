package toolbridge

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/toolbridge/pkg/config"
)

var initOutput string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default toolbridge.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(initOutput); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", initOutput)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "toolbridge.toml", "where to write the config file")
}
