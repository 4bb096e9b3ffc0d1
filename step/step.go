// Package step executes single UI actions against a browser page with
// bounded retry and failure screenshots.
package step

import (
	"time"
)

// DefaultTimeout bounds element waits when a step does not set its own.
const DefaultTimeout = 10 * time.Second

// Action is the closed set of operations a step can perform.
type Action string

const (
	ActionOpenURL    Action = "open_url"
	ActionClick      Action = "click"
	ActionTypeText   Action = "type_text"
	ActionVerify     Action = "verify"
	ActionWait       Action = "wait"
	ActionScreenshot Action = "screenshot"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionOpenURL,
	ActionClick,
	ActionTypeText,
	ActionVerify,
	ActionWait,
	ActionScreenshot,
}

// IsValid checks if the action is supported.
func (a Action) IsValid() bool {
	switch a {
	case ActionOpenURL, ActionClick, ActionTypeText, ActionVerify, ActionWait, ActionScreenshot:
		return true
	default:
		return false
	}
}

// Step is one atomic UI action within a test script.
type Step struct {
	Action      Action  `json:"action"`
	Selector    string  `json:"selector,omitempty"`
	Value       string  `json:"value,omitempty"`
	Timeout     float64 `json:"timeout,omitempty"` // seconds
	Description string  `json:"description,omitempty"`
}

// TimeoutDuration returns the element wait bound for the step.
func (s Step) TimeoutDuration() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return time.Duration(s.Timeout * float64(time.Second))
}

// Status is the outcome of a single step.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Result is the immutable record of one executed step.
type Result struct {
	StepNumber  int       `json:"step_number"`
	Action      Action    `json:"action"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Selector    string    `json:"selector,omitempty"`
	Value       string    `json:"value,omitempty"`
	Duration    float64   `json:"duration"` // seconds
	Timestamp   time.Time `json:"timestamp"`
	Attempt     int       `json:"attempt"`
	Error       string    `json:"error,omitempty"`
	ErrorType   string    `json:"error_type,omitempty"`
	Screenshot  string    `json:"screenshot,omitempty"`
}

// Passed reports whether the step passed.
func (r Result) Passed() bool {
	return r.Status == StatusPassed
}
