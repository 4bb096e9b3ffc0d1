package step

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/stretchr/testify/assert"
)

func TestAction_IsValid(t *testing.T) {
	for _, action := range Actions {
		assert.True(t, action.IsValid(), string(action))
	}
	assert.False(t, Action("hover").IsValid())
	assert.False(t, Action("").IsValid())
}

func TestStep_TimeoutDuration(t *testing.T) {
	assert.Equal(t, DefaultTimeout, Step{}.TimeoutDuration())
	assert.Equal(t, DefaultTimeout, Step{Timeout: -1}.TimeoutDuration())
	assert.Equal(t, 1500*time.Millisecond, Step{Timeout: 1.5}.TimeoutDuration())
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "invalid input", err: fmt.Errorf("%w: selector is required", ErrInvalidInput), want: KindInvalidInput},
		{name: "element not found", err: fmt.Errorf("%w: #x", browser.ErrElementNotFound), want: KindElementNotFound},
		{name: "assertion", err: fmt.Errorf("%w: text", ErrAssertion), want: KindAssertion},
		{name: "navigation", err: browser.ErrNavigation, want: KindNavigation},
		{name: "launch", err: browser.ErrLaunch, want: KindNavigation},
		{name: "screenshot", err: browser.ErrScreenshot, want: KindScreenshot},
		{name: "deadline", err: context.DeadlineExceeded, want: KindTimeout},
		{name: "unknown", err: errors.New("boom"), want: KindDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(fmt.Errorf("%w: unknown action", ErrInvalidInput)))
	assert.False(t, retryable(fmt.Errorf("wait aborted: %w", context.Canceled)))
	assert.True(t, retryable(browser.ErrElementNotFound))
	assert.True(t, retryable(ErrAssertion))
	assert.True(t, retryable(errors.New("detached")))
}

func TestScreenshotNames(t *testing.T) {
	assert.Equal(t, "login_step_3.png", StepScreenshotName("login", 3))
	assert.Equal(t, "login_step_3_FAILED.png", FailedScreenshotName("login", 3))
	assert.Equal(t, "login_ERROR.png", ErrorScreenshotName("login"))
	assert.Equal(t, "a_b_c_ERROR.png", ErrorScreenshotName("a/b\\c"))
	assert.Equal(t, "test_step_1.png", StepScreenshotName("", 1))
}
