package runner

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/hairizuan-noorazman/browser-bridge/step"
)

var (
	// ErrInvalidTestID is returned when test_id is not set.
	ErrInvalidTestID = errors.New("test_id is required")

	// ErrInvalidURL is returned when url is not set.
	ErrInvalidURL = errors.New("url is required")

	// ErrMissingSteps is returned when the steps list is absent.
	ErrMissingSteps = errors.New("steps is required")

	// ErrInvalidBrowser is returned for browsers other than chrome, firefox and edge.
	ErrInvalidBrowser = errors.New("browser must be one of chrome, firefox, edge")

	// ErrInvalidWebhookURL is returned when webhook_url is not an absolute http(s) URL.
	ErrInvalidWebhookURL = errors.New("webhook_url must be an absolute http or https URL")
)

// TestRequest describes one test to run.
type TestRequest struct {
	TestID     string       `json:"test_id"`
	URL        string       `json:"url"`
	Steps      []step.Step  `json:"steps"`
	Browser    browser.Type `json:"browser,omitempty"`
	Headless   *bool        `json:"headless,omitempty"`
	WebhookURL string       `json:"webhook_url,omitempty"`
}

// Validate checks if the request has valid required fields. An empty steps
// list is valid; a missing one is not.
func (r *TestRequest) Validate() error {
	if r.TestID == "" {
		return ErrInvalidTestID
	}
	if r.URL == "" {
		return ErrInvalidURL
	}
	if r.Steps == nil {
		return ErrMissingSteps
	}
	if r.Browser != "" && !r.Browser.IsValid() {
		return fmt.Errorf("%w: got %q", ErrInvalidBrowser, r.Browser)
	}
	if r.WebhookURL != "" {
		u, err := url.Parse(r.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidWebhookURL
		}
	}
	return nil
}

// BrowserType returns the requested browser, defaulting to chrome.
func (r *TestRequest) BrowserType() browser.Type {
	if r.Browser == "" {
		return browser.Chrome
	}
	return r.Browser
}

// IsHeadless returns the requested mode, defaulting to headless.
func (r *TestRequest) IsHeadless() bool {
	if r.Headless == nil {
		return true
	}
	return *r.Headless
}

// Status is the overall outcome of a run.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// TestResult is the report produced once per run.
type TestResult struct {
	TestID          string        `json:"test_id"`
	Status          Status        `json:"status"`
	Duration        float64       `json:"duration"` // seconds
	StepsExecuted   int           `json:"steps_executed"`
	StepsPassed     int           `json:"steps_passed"`
	StepsFailed     int           `json:"steps_failed"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	ScreenshotURL   string        `json:"screenshot_url,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
	DetailedResults []step.Result `json:"detailed_results"`
}

// aggregate builds the report of a run whose steps all executed.
func aggregate(testID string, results []step.Result, start time.Time) *TestResult {
	result := &TestResult{
		TestID:          testID,
		Status:          StatusPass,
		StepsExecuted:   len(results),
		DetailedResults: results,
	}
	for _, r := range results {
		if r.Passed() {
			result.StepsPassed++
		} else {
			result.StepsFailed++
		}
	}
	if result.StepsFailed > 0 {
		result.Status = StatusFail
	}
	result.Duration = roundSeconds(time.Since(start))
	result.Timestamp = time.Now()
	return result
}

// errorResult builds the report of a run that could not complete.
func errorResult(testID string, err error, screenshot string, start time.Time) *TestResult {
	return &TestResult{
		TestID:          testID,
		Status:          StatusError,
		Duration:        roundSeconds(time.Since(start)),
		ErrorMessage:    err.Error(),
		ScreenshotURL:   screenshot,
		Timestamp:       time.Now(),
		DetailedResults: []step.Result{},
	}
}

// roundSeconds reports d in seconds rounded to two decimals.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
