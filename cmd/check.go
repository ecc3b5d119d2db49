package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-web/internal/apiclient"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and probe the ticket API",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := apiclient.New(apiclient.Config{BaseURL: cfg.TicketAPI.BaseURL})
	if err != nil {
		return err
	}
	if err := pingUpstream(cmd.Context(), client); err != nil {
		return fmt.Errorf("ticket api %s unreachable: %w", client.BaseURL(), err)
	}
	tickets, err := client.ListTickets(cmd.Context(), "")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ticket api %s: ok (%d tickets)\n", client.BaseURL(), len(tickets))
	return nil
}

func pingUpstream(ctx context.Context, client *apiclient.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return client.Ping(ctx)
}
