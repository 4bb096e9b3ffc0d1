package step

import (
	"context"
	"errors"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
)

var (
	// ErrInvalidInput is returned for unknown actions and missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAssertion is returned when expected text is absent from an element.
	ErrAssertion = errors.New("assertion failed")

	// ErrDriver wraps unexpected driver faults, including recovered panics.
	ErrDriver = errors.New("driver error")
)

// Error kinds reported in Result.ErrorType.
const (
	KindInvalidInput    = "invalid_input"
	KindElementNotFound = "element_not_found"
	KindAssertion       = "assertion"
	KindNavigation      = "navigation"
	KindScreenshot      = "screenshot"
	KindTimeout         = "timeout"
	KindDriver          = "driver"
)

// Kind classifies err into one of the reported error kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput

	case errors.Is(err, browser.ErrElementNotFound):
		return KindElementNotFound

	case errors.Is(err, ErrAssertion):
		return KindAssertion

	case errors.Is(err, browser.ErrNavigation), errors.Is(err, browser.ErrLaunch):
		return KindNavigation

	case errors.Is(err, browser.ErrScreenshot):
		return KindScreenshot

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout

	default:
		return KindDriver
	}
}

// retryable reports whether the retry loop should try again. Every step
// fault is retried, invalid input included; only a cancelled context ends
// the loop early.
func retryable(err error) bool {
	return !errors.Is(err, context.Canceled)
}
