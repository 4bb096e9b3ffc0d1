package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health and open browser sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getClient().Get("/health", nil)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var resp struct {
				Status         string    `json:"status"`
				Timestamp      time.Time `json:"timestamp"`
				ActiveSessions int       `json:"active_sessions"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Status:          %s", resp.Status))
			printMessage(fmt.Sprintf("Active sessions: %d", resp.ActiveSessions))
			printMessage(fmt.Sprintf("Server time:     %s", resp.Timestamp.Format(time.RFC3339)))
			return nil
		},
	}
}
