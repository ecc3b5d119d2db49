package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-web/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.App.Name, cfg.App.Version)
		return nil
	},
}
