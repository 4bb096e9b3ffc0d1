package step

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
)

// Defaults for the retry policy and page settling.
const (
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 2 * time.Second
	DefaultSettleDelay = 1 * time.Second
)

// Policy configures retries and fixed delays. Delays never grow between attempts.
type Policy struct {
	MaxRetries  int
	RetryDelay  time.Duration
	SettleDelay time.Duration
}

// DefaultPolicy returns 3 total attempts 2s apart and a 1s settle after navigation.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:  DefaultMaxRetries,
		RetryDelay:  DefaultRetryDelay,
		SettleDelay: DefaultSettleDelay,
	}
}

// Recorder observes finished steps. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStep(action Action, status Status, attempts int)
}

// Executor runs the steps of one test against its page.
// An Executor is owned by a single run and is not safe for concurrent use.
type Executor struct {
	page        browser.Page
	testID      string
	screenshots *Screenshots
	policy      Policy
	recorder    Recorder
	logger      logger.Logger
}

// NewExecutor creates an executor bound to page. recorder may be nil.
func NewExecutor(page browser.Page, testID string, screenshots *Screenshots, policy Policy, recorder Recorder, log logger.Logger) *Executor {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Executor{
		page:        page,
		testID:      testID,
		screenshots: screenshots,
		policy:      policy,
		recorder:    recorder,
		logger:      log.WithField("test_id", testID),
	}
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetryable
	outcomeTerminal
)

// outcome is the tagged result of one attempt.
type outcome struct {
	kind   outcomeKind
	result Result
	err    error
}

func succeeded(result Result) outcome {
	return outcome{kind: outcomeSuccess, result: result}
}

func faulted(err error) outcome {
	if retryable(err) {
		return outcome{kind: outcomeRetryable, err: err}
	}
	return outcome{kind: outcomeTerminal, err: err}
}

// Execute runs step with bounded retry and always returns a Result.
// stepNumber is the 1-based position of the step in the test.
func (e *Executor) Execute(ctx context.Context, s Step, stepNumber int) Result {
	start := time.Now()
	maxAttempts := e.policy.MaxRetries + 1

	for attempt := 1; ; attempt++ {
		out := e.attempt(ctx, s, stepNumber)

		switch {
		case out.kind == outcomeSuccess:
			result := out.result
			result.Status = StatusPassed
			result.Attempt = attempt
			e.logger.Info(ctx, "step passed", map[string]interface{}{
				"step":    stepNumber,
				"action":  string(s.Action),
				"attempt": attempt,
			})
			e.observe(s.Action, StatusPassed, attempt)
			return result

		case out.kind == outcomeTerminal || attempt >= maxAttempts:
			return e.fail(ctx, s, stepNumber, attempt, out.err, start)
		}

		e.logger.Warn(ctx, "step failed, retrying", map[string]interface{}{
			"step":         stepNumber,
			"action":       string(s.Action),
			"attempt":      attempt,
			"max_attempts": maxAttempts,
			"error":        out.err.Error(),
		})
		sleep(ctx, e.policy.RetryDelay)
	}
}

func (e *Executor) fail(ctx context.Context, s Step, stepNumber, attempt int, err error, start time.Time) Result {
	result := Result{
		StepNumber:  stepNumber,
		Action:      s.Action,
		Description: s.Description,
		Status:      StatusFailed,
		Selector:    s.Selector,
		Value:       s.Value,
		Duration:    time.Since(start).Seconds(),
		Attempt:     attempt,
		Error:       err.Error(),
		ErrorType:   Kind(err),
	}

	name := FailedScreenshotName(e.testID, stepNumber)
	if location, shotErr := e.screenshots.Capture(ctx, e.page, name); shotErr != nil {
		e.logger.Error(ctx, "failed to capture failure screenshot", map[string]interface{}{
			"step":  stepNumber,
			"error": shotErr.Error(),
		})
	} else {
		result.Screenshot = location
		e.logger.Info(ctx, "failure screenshot saved", map[string]interface{}{
			"step":       stepNumber,
			"screenshot": location,
		})
	}

	result.Timestamp = time.Now()
	e.logger.Error(ctx, "step failed", map[string]interface{}{
		"step":       stepNumber,
		"action":     string(s.Action),
		"attempts":   attempt,
		"error":      result.Error,
		"error_type": result.ErrorType,
	})
	e.observe(s.Action, StatusFailed, attempt)
	return result
}

// attempt performs the action once. Driver panics become retryable faults.
func (e *Executor) attempt(ctx context.Context, s Step, stepNumber int) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = faulted(fmt.Errorf("%w: panic: %v", ErrDriver, r))
		}
	}()

	start := time.Now()
	screenshot, err := e.perform(ctx, s, stepNumber)
	if err != nil {
		return faulted(err)
	}

	if s.Action == ActionScreenshot {
		return succeeded(Result{
			StepNumber:  stepNumber,
			Action:      s.Action,
			Description: s.Description,
			Screenshot:  screenshot,
			Duration:    time.Since(start).Seconds(),
			Timestamp:   time.Now(),
		})
	}

	return succeeded(Result{
		StepNumber:  stepNumber,
		Action:      s.Action,
		Description: s.Description,
		Selector:    s.Selector,
		Value:       s.Value,
		Duration:    time.Since(start).Seconds(),
		Timestamp:   time.Now(),
	})
}

// perform dispatches on the action. It returns the screenshot location for
// screenshot steps.
func (e *Executor) perform(ctx context.Context, s Step, stepNumber int) (string, error) {
	switch s.Action {
	case ActionOpenURL:
		target := s.Value
		if target == "" {
			target = s.Selector
		}
		if target == "" {
			return "", fmt.Errorf("%w: value or selector with the target URL is required for open_url action", ErrInvalidInput)
		}
		if err := e.page.Navigate(ctx, target); err != nil {
			return "", err
		}
		sleep(ctx, e.policy.SettleDelay)
		return "", nil

	case ActionClick:
		if s.Selector == "" {
			return "", fmt.Errorf("%w: selector is required for click action", ErrInvalidInput)
		}
		if err := e.page.WaitVisible(ctx, s.Selector, s.TimeoutDuration()); err != nil {
			return "", err
		}
		return "", e.page.Click(ctx, s.Selector)

	case ActionTypeText:
		if s.Selector == "" || s.Value == "" {
			return "", fmt.Errorf("%w: selector and value are required for type_text action", ErrInvalidInput)
		}
		if err := e.page.WaitVisible(ctx, s.Selector, s.TimeoutDuration()); err != nil {
			return "", err
		}
		return "", e.page.Fill(ctx, s.Selector, s.Value)

	case ActionVerify:
		if s.Selector == "" {
			return "", fmt.Errorf("%w: selector is required for verify action", ErrInvalidInput)
		}
		if err := e.page.WaitVisible(ctx, s.Selector, s.TimeoutDuration()); err != nil {
			return "", err
		}
		if s.Value == "" {
			return "", nil
		}
		text, err := e.page.Text(ctx, s.Selector)
		if err != nil {
			return "", err
		}
		if !strings.Contains(text, s.Value) {
			return "", fmt.Errorf("%w: expected %q not found in element text: %q", ErrAssertion, s.Value, text)
		}
		return "", nil

	case ActionWait:
		d, err := waitDuration(s)
		if err != nil {
			return "", err
		}
		sleep(ctx, d)
		return "", nil

	case ActionScreenshot:
		return e.screenshots.Capture(ctx, e.page, StepScreenshotName(e.testID, stepNumber))

	default:
		return "", fmt.Errorf("%w: unknown action: %q", ErrInvalidInput, s.Action)
	}
}

// waitDuration reads the wait length in seconds from the value, falling
// back to the step timeout.
func waitDuration(s Step) (time.Duration, error) {
	if s.Value == "" {
		return s.TimeoutDuration(), nil
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("%w: wait value must be a non-negative number of seconds, got %q", ErrInvalidInput, s.Value)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (e *Executor) observe(action Action, status Status, attempts int) {
	if e.recorder != nil {
		e.recorder.ObserveStep(action, status, attempts)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
