// Package browser abstracts the browser-automation driver used to execute
// test steps. The production implementation drives Playwright; tests use
// scripted fakes of the Page and Launcher interfaces.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrElementNotFound is returned when a locator does not become visible in time.
	ErrElementNotFound = errors.New("element not found")

	// ErrNavigation is returned when the page fails to load a URL.
	ErrNavigation = errors.New("navigation failed")

	// ErrLaunch is returned when a browser session cannot be created.
	ErrLaunch = errors.New("browser launch failed")

	// ErrScreenshot is returned when a screenshot cannot be captured.
	ErrScreenshot = errors.New("screenshot failed")

	// ErrUnsupportedBrowser is returned for browser types the driver cannot launch.
	ErrUnsupportedBrowser = errors.New("unsupported browser")
)

// Type identifies the browser engine used for a session.
type Type string

const (
	Chrome  Type = "chrome"
	Firefox Type = "firefox"
	Edge    Type = "edge"
)

// IsValid checks if the browser type is supported.
func (t Type) IsValid() bool {
	switch t {
	case Chrome, Firefox, Edge:
		return true
	default:
		return false
	}
}

// Options configures a new browser session.
type Options struct {
	Browser  Type
	Headless bool

	// DefaultTimeout bounds driver operations that have no explicit timeout.
	DefaultTimeout time.Duration
}

// Page is one live browser page bound to a single test run.
type Page interface {
	// Navigate opens url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitVisible waits until the element matching selector is visible.
	// Returns ErrElementNotFound when timeout elapses first.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Click clicks the element matching selector.
	Click(ctx context.Context, selector string) error

	// Fill replaces the text of the input matching selector.
	Fill(ctx context.Context, selector, value string) error

	// Text returns the visible text of the element matching selector.
	Text(ctx context.Context, selector string) (string, error)

	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the page and the browser process behind it.
	Close() error
}

// Launcher creates browser sessions.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Page, error)
}
