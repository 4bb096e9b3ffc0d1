package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hairizuan-noorazman/browser-bridge/logger"
	"github.com/hairizuan-noorazman/browser-bridge/runner"
	"github.com/spf13/cobra"
)

var testFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single test request without starting the server",
	Long: `Reads a test request (the /execute-test body) from a file, or stdin when
the file is "-", runs it and prints the result as JSON. The exit code does not
reflect the test outcome; inspect the status field.`,
	RunE: runTest,
}

func init() {
	runCmd.Flags().StringVarP(&testFile, "file", "f", "", "test request JSON file (- for stdin)")
	runCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(runCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	req, err := readTestRequest(cmd.InOrStdin(), testFile)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid test request: %w", err)
	}

	// Logs go to stderr so stdout carries only the result.
	log := logger.NewLogrusLoggerWithOutput(cfg.Log.Level, cmd.ErrOrStderr())

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	result := a.runner.Run(ctx, *req)

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Webhook.Timeout)
	defer cancel()
	if err := a.dispatcher.Wait(waitCtx); err != nil {
		log.Warn(ctx, "webhook still pending at exit", map[string]interface{}{
			"error": err.Error(),
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func readTestRequest(stdin io.Reader, path string) (*runner.TestRequest, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open test file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req runner.TestRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse test request: %w", err)
	}
	return &req, nil
}
