package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-web/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "ticket-web",
	Short:        "Web front end for the ticket API: create, list and update tickets",
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
