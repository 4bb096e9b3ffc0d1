package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hairizuan-noorazman/browser-bridge/history"
	"github.com/hairizuan-noorazman/browser-bridge/step"
	"github.com/spf13/cobra"
)

// PaginatedResponse is a generic paginated API response.
type PaginatedResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored run history",
	}

	cmd.AddCommand(newRunsListCmd())
	cmd.AddCommand(newRunsGetCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var testID string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if testID != "" {
				query.Set("test_id", testID)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}

			body, err := getClient().Get("/api/v1/runs", query)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var resp PaginatedResponse[history.Run]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "TEST ID", "STATUS", "BROWSER", "PASSED", "FAILED", "DURATION", "FINISHED AT"}
			var rows [][]string
			for _, r := range resp.Items {
				rows = append(rows, []string{
					r.ID.String(),
					r.TestID,
					r.Status,
					orDash(r.Browser),
					strconv.Itoa(r.StepsPassed),
					strconv.Itoa(r.StepsFailed),
					fmt.Sprintf("%.2fs", r.Duration),
					r.FinishedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nShowing %d of %d runs", len(resp.Items), resp.Total))
			return nil
		},
	}

	cmd.Flags().StringVar(&testID, "test-id", "", "Only runs of this test")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func newRunsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show a stored run with its step results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getClient().Get("/api/v1/runs/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var run history.Run
			if err := json.Unmarshal(body, &run); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("ID:       %s", run.ID))
			printMessage(fmt.Sprintf("Test:     %s", run.TestID))
			printMessage(fmt.Sprintf("URL:      %s", run.URL))
			printMessage(fmt.Sprintf("Status:   %s", run.Status))
			printMessage(fmt.Sprintf("Duration: %.2fs", run.Duration))
			if run.ErrorMessage != "" {
				printMessage(fmt.Sprintf("Error:    %s", run.ErrorMessage))
			}

			var steps []step.Result
			if len(run.DetailedResults) > 0 {
				if err := json.Unmarshal(run.DetailedResults, &steps); err != nil {
					return fmt.Errorf("failed to parse step results: %w", err)
				}
			}
			if len(steps) == 0 {
				return nil
			}

			printMessage("")
			headers := []string{"STEP", "ACTION", "STATUS", "ATTEMPTS", "ERROR"}
			var rows [][]string
			for _, s := range steps {
				rows = append(rows, []string{
					strconv.Itoa(s.StepNumber),
					string(s.Action),
					string(s.Status),
					strconv.Itoa(s.Attempt),
					orDash(s.Error),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}
}
