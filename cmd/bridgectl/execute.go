package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/hairizuan-noorazman/browser-bridge/runner"
	"github.com/spf13/cobra"
)

func newExecuteCmd() *cobra.Command {
	var file, browserName, webhookURL string
	var headed bool

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Submit a test request and wait for its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadRequest(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			if browserName != "" {
				req.Browser = browser.Type(browserName)
			}
			if headed {
				headless := false
				req.Headless = &headless
			}
			if webhookURL != "" {
				req.WebhookURL = webhookURL
			}

			payload, err := json.Marshal(req)
			if err != nil {
				return fmt.Errorf("failed to marshal request: %w", err)
			}

			body, err := getClient().Post("/execute-test", payload)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var result runner.TestResult
			if err := json.Unmarshal(body, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			printResult(&result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Test request JSON file, - for stdin (required)")
	cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&browserName, "browser", "", "Override the browser (chrome, firefox, edge)")
	cmd.Flags().BoolVar(&headed, "headed", false, "Run with a visible browser window")
	cmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Override the callback URL")
	return cmd
}

func loadRequest(stdin io.Reader, path string) (*runner.TestRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read test request: %w", err)
	}

	var req runner.TestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse test request: %w", err)
	}
	return &req, nil
}

func printResult(result *runner.TestResult) {
	printMessage(fmt.Sprintf("Test:     %s", result.TestID))
	printMessage(fmt.Sprintf("Status:   %s", result.Status))
	printMessage(fmt.Sprintf("Duration: %.2fs", result.Duration))
	printMessage(fmt.Sprintf("Steps:    %d executed, %d passed, %d failed",
		result.StepsExecuted, result.StepsPassed, result.StepsFailed))
	if result.ErrorMessage != "" {
		printMessage(fmt.Sprintf("Error:    %s", result.ErrorMessage))
	}
	if result.ScreenshotURL != "" {
		printMessage(fmt.Sprintf("Screenshot: %s", result.ScreenshotURL))
	}

	if len(result.DetailedResults) == 0 {
		return
	}

	printMessage("")
	headers := []string{"STEP", "ACTION", "STATUS", "ATTEMPTS", "DURATION", "ERROR", "SCREENSHOT"}
	var rows [][]string
	for _, r := range result.DetailedResults {
		rows = append(rows, []string{
			strconv.Itoa(r.StepNumber),
			string(r.Action),
			string(r.Status),
			strconv.Itoa(r.Attempt),
			fmt.Sprintf("%.2fs", r.Duration),
			orDash(r.Error),
			orDash(r.Screenshot),
		})
	}
	printTable(headers, rows)
}
