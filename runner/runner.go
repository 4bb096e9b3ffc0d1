// Package runner drives one browser session through a test and reports the
// aggregated result.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/hairizuan-noorazman/browser-bridge/history"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
	"github.com/hairizuan-noorazman/browser-bridge/session"
	"github.com/hairizuan-noorazman/browser-bridge/step"
)

// Notifier delivers a finished result to a callback URL without blocking.
type Notifier interface {
	Dispatch(ctx context.Context, url string, payload interface{})
}

// Recorder observes finished runs.
type Recorder interface {
	ObserveRun(status string, durationSeconds float64)
}

// Options wires a Runner. Notifier, History, Recorder and StepRecorder are optional.
type Options struct {
	Launcher       browser.Launcher
	Sessions       *session.Registry
	Screenshots    *step.Screenshots
	Policy         step.Policy
	BrowserTimeout time.Duration
	Notifier       Notifier
	History        history.Store
	Recorder       Recorder
	StepRecorder   step.Recorder
	Logger         logger.Logger
}

// Runner executes test requests. It is safe for concurrent use; every run
// owns its own browser session.
type Runner struct {
	launcher       browser.Launcher
	sessions       *session.Registry
	screenshots    *step.Screenshots
	policy         step.Policy
	browserTimeout time.Duration
	notifier       Notifier
	history        history.Store
	recorder       Recorder
	stepRecorder   step.Recorder
	logger         logger.Logger
}

// New creates a runner.
func New(opts Options) *Runner {
	return &Runner{
		launcher:       opts.Launcher,
		sessions:       opts.Sessions,
		screenshots:    opts.Screenshots,
		policy:         opts.Policy,
		browserTimeout: opts.BrowserTimeout,
		notifier:       opts.Notifier,
		history:        opts.History,
		recorder:       opts.Recorder,
		stepRecorder:   opts.StepRecorder,
		logger:         opts.Logger,
	}
}

// Run executes req to completion and returns its result. Cancelling ctx
// does not abort the run.
func (r *Runner) Run(ctx context.Context, req TestRequest) *TestResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	log := r.logger.WithField("test_id", req.TestID)

	log.Info(ctx, "starting test execution", map[string]interface{}{
		"url":     req.URL,
		"browser": string(req.BrowserType()),
		"steps":   len(req.Steps),
	})

	result := r.execute(ctx, req, start, log)
	r.finish(ctx, req, result, log)
	return result
}

func (r *Runner) execute(ctx context.Context, req TestRequest, start time.Time, log logger.Logger) (result *TestResult) {
	page, err := r.launcher.Launch(ctx, browser.Options{
		Browser:        req.BrowserType(),
		Headless:       req.IsHeadless(),
		DefaultTimeout: r.browserTimeout,
	})
	if err != nil {
		log.Error(ctx, "failed to start browser session", map[string]interface{}{
			"error": err.Error(),
		})
		return errorResult(req.TestID, err, "", start)
	}

	sess := r.sessions.Register(ctx, req.TestID, req.BrowserType(), page)
	defer func() {
		if err := closePage(page); err != nil {
			log.Error(ctx, "error closing browser session", map[string]interface{}{
				"session_id": sess.ID.String(),
				"error":      err.Error(),
			})
		}
		r.sessions.Deregister(ctx, sess.ID)
	}()

	defer func() {
		if rec := recover(); rec != nil {
			result = r.abort(ctx, req.TestID, page, fmt.Errorf("%w: panic: %v", step.ErrDriver, rec), start, log)
		}
	}()

	log.Info(ctx, "opening URL", map[string]interface{}{
		"url": req.URL,
	})
	if err := page.Navigate(ctx, req.URL); err != nil {
		return r.abort(ctx, req.TestID, page, err, start, log)
	}

	executor := step.NewExecutor(page, req.TestID, r.screenshots, r.policy, r.stepRecorder, r.logger)
	results := make([]step.Result, 0, len(req.Steps))
	for i, s := range req.Steps {
		log.Info(ctx, "executing step", map[string]interface{}{
			"step":   i + 1,
			"total":  len(req.Steps),
			"action": string(s.Action),
		})
		results = append(results, executor.Execute(ctx, s, i+1))
	}

	return aggregate(req.TestID, results, start)
}

// abort converts a run-level fault into an ERROR result, capturing a
// best-effort screenshot of the page.
func (r *Runner) abort(ctx context.Context, testID string, page browser.Page, cause error, start time.Time, log logger.Logger) *TestResult {
	log.Error(ctx, "test execution failed", map[string]interface{}{
		"error":      cause.Error(),
		"error_type": step.Kind(cause),
	})

	screenshot, err := r.captureError(ctx, testID, page)
	if err != nil {
		log.Warn(ctx, "failed to capture error screenshot", map[string]interface{}{
			"error": err.Error(),
		})
		screenshot = ""
	}

	return errorResult(testID, cause, screenshot, start)
}

// captureError screenshots a page that may already be unusable.
func (r *Runner) captureError(ctx context.Context, testID string, page browser.Page) (location string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", browser.ErrScreenshot, rec)
		}
	}()
	return r.screenshots.Capture(ctx, page, step.ErrorScreenshotName(testID))
}

// closePage releases the browser session, containing driver panics.
func closePage(page browser.Page) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic during close: %v", step.ErrDriver, rec)
		}
	}()
	return page.Close()
}

func (r *Runner) finish(ctx context.Context, req TestRequest, result *TestResult, log logger.Logger) {
	log.Info(ctx, "test completed", map[string]interface{}{
		"status":       string(result.Status),
		"duration":     result.Duration,
		"steps_passed": result.StepsPassed,
		"steps_failed": result.StepsFailed,
	})

	if r.recorder != nil {
		r.recorder.ObserveRun(string(result.Status), result.Duration)
	}

	if r.history != nil {
		r.record(ctx, req, result, log)
	}

	if req.WebhookURL != "" && r.notifier != nil {
		r.notifier.Dispatch(ctx, req.WebhookURL, result)
	}
}

func (r *Runner) record(ctx context.Context, req TestRequest, result *TestResult, log logger.Logger) {
	details, err := json.Marshal(result.DetailedResults)
	if err != nil {
		log.Error(ctx, "failed to encode step results", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	run := &history.Run{
		TestID:          result.TestID,
		Status:          string(result.Status),
		Browser:         string(req.BrowserType()),
		URL:             req.URL,
		Duration:        result.Duration,
		StepsExecuted:   result.StepsExecuted,
		StepsPassed:     result.StepsPassed,
		StepsFailed:     result.StepsFailed,
		ErrorMessage:    result.ErrorMessage,
		ScreenshotURL:   result.ScreenshotURL,
		DetailedResults: history.JSON(details),
		FinishedAt:      result.Timestamp,
	}
	if err := r.history.Create(ctx, run); err != nil {
		log.Error(ctx, "failed to record run history", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
