package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/hairizuan-noorazman/browser-bridge/history"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
	"github.com/hairizuan-noorazman/browser-bridge/session"
	"github.com/hairizuan-noorazman/browser-bridge/step"
	"github.com/hairizuan-noorazman/browser-bridge/storage"
	"github.com/hairizuan-noorazman/browser-bridge/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatch struct {
	url     string
	payload interface{}
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []dispatch
}

func (n *recordingNotifier) Dispatch(ctx context.Context, url string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, dispatch{url: url, payload: payload})
}

type runObservation struct {
	status   string
	duration float64
}

type recordingRecorder struct {
	mu   sync.Mutex
	runs []runObservation
}

func (r *recordingRecorder) ObserveRun(status string, durationSeconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, runObservation{status, durationSeconds})
}

type runnerFixture struct {
	page     *testutil.FakePage
	launcher *testutil.FakeLauncher
	sessions *session.Registry
	notifier *recordingNotifier
	recorder *recordingRecorder
	history  *history.GormStore
	baseDir  string
	runner   *Runner
}

func newRunnerFixture(t *testing.T, elements map[string]string) *runnerFixture {
	t.Helper()

	baseDir := t.TempDir()
	blob, err := storage.NewLocalStorage(baseDir)
	require.NoError(t, err)

	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &history.Run{})

	log := logger.NewTestLogger()
	page := testutil.NewFakePage(elements)

	f := &runnerFixture{
		page:     page,
		launcher: &testutil.FakeLauncher{Page: page},
		sessions: session.NewRegistry(log, nil),
		notifier: &recordingNotifier{},
		recorder: &recordingRecorder{},
		history:  history.NewGormStore(db, log),
		baseDir:  baseDir,
	}
	f.runner = New(Options{
		Launcher:    f.launcher,
		Sessions:    f.sessions,
		Screenshots: step.NewScreenshots(blob),
		Policy:      step.Policy{MaxRetries: 2},
		Notifier:    f.notifier,
		History:     f.history,
		Recorder:    f.recorder,
		Logger:      log,
	})
	return f
}

func loginRequest() TestRequest {
	return TestRequest{
		TestID: "login",
		URL:    "https://example.com/login",
		Steps: []step.Step{
			{Action: step.ActionTypeText, Selector: "#user", Value: "alice"},
			{Action: step.ActionClick, Selector: "#submit"},
			{Action: step.ActionVerify, Selector: "h1", Value: "Welcome"},
		},
	}
}

var loginPage = map[string]string{
	"#user":   "",
	"#submit": "Sign in",
	"h1":      "Welcome, User",
}

func TestRunner_Pass(t *testing.T) {
	f := newRunnerFixture(t, loginPage)

	result := f.runner.Run(context.Background(), loginRequest())

	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, "login", result.TestID)
	assert.Equal(t, 3, result.StepsExecuted)
	assert.Equal(t, 3, result.StepsPassed)
	assert.Equal(t, 0, result.StepsFailed)
	assert.Empty(t, result.ErrorMessage)
	assert.Empty(t, result.ScreenshotURL)
	assert.GreaterOrEqual(t, result.Duration, 0.0)
	require.Len(t, result.DetailedResults, 3)
	for i, r := range result.DetailedResults {
		assert.Equal(t, i+1, r.StepNumber)
	}

	assert.Equal(t, []string{"https://example.com/login"}, f.page.Navigations)
	assert.Equal(t, 1, f.page.Closed())
	assert.Equal(t, 0, f.sessions.Len())
	require.Len(t, f.launcher.Launched, 1)
	assert.Equal(t, browser.Options{Browser: browser.Chrome, Headless: true}, f.launcher.Launched[0])
}

func TestRunner_EmptyStepsPass(t *testing.T) {
	f := newRunnerFixture(t, nil)
	req := TestRequest{TestID: "smoke", URL: "https://example.com", Steps: []step.Step{}}

	result := f.runner.Run(context.Background(), req)

	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, 0, result.StepsExecuted)
	assert.GreaterOrEqual(t, result.Duration, 0.0)
	assert.NotNil(t, result.DetailedResults)

	body, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"detailed_results":[]`)
}

func TestRunner_DurationRoundedToHundredths(t *testing.T) {
	f := newRunnerFixture(t, nil)
	req := TestRequest{
		TestID: "slow",
		URL:    "https://example.com",
		Steps:  []step.Step{{Action: step.ActionWait, Value: "0.05"}},
	}

	result := f.runner.Run(context.Background(), req)

	require.Equal(t, StatusPass, result.Status)
	assert.GreaterOrEqual(t, result.Duration, 0.05)
	assert.Equal(t, math.Round(result.Duration*100)/100, result.Duration)
}

func TestRoundSeconds(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want float64
	}{
		{name: "zero", d: 0, want: 0},
		{name: "sub hundredth", d: 4 * time.Millisecond, want: 0},
		{name: "rounds up", d: 1236 * time.Millisecond, want: 1.24},
		{name: "rounds down", d: 1234 * time.Millisecond, want: 1.23},
		{name: "whole seconds", d: 3 * time.Second, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roundSeconds(tt.d))
		})
	}
}

func TestRunner_FailContinuesAfterFailedStep(t *testing.T) {
	f := newRunnerFixture(t, map[string]string{"#submit": "Go", "h1": "Goodbye"})
	req := TestRequest{
		TestID: "checkout",
		URL:    "https://example.com",
		Steps: []step.Step{
			{Action: step.ActionVerify, Selector: "h1", Value: "Welcome"},
			{Action: step.ActionClick, Selector: "#submit"},
		},
	}

	result := f.runner.Run(context.Background(), req)

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, 2, result.StepsExecuted)
	assert.Equal(t, 1, result.StepsPassed)
	assert.Equal(t, 1, result.StepsFailed)
	assert.Equal(t, result.StepsExecuted, result.StepsPassed+result.StepsFailed)

	failed := result.DetailedResults[0]
	assert.Equal(t, step.StatusFailed, failed.Status)
	assert.Equal(t, 3, failed.Attempt)
	assert.Equal(t, step.KindAssertion, failed.ErrorType)
	assert.True(t, strings.HasSuffix(failed.Screenshot, "_FAILED.png"), failed.Screenshot)
	assert.Equal(t, step.StatusPassed, result.DetailedResults[1].Status)
	assert.Empty(t, result.ErrorMessage)
}

func TestRunner_NavigationErrorAborts(t *testing.T) {
	f := newRunnerFixture(t, loginPage)
	f.page.NavigateErr = fmt.Errorf("%w: net::ERR_CONNECTION_REFUSED", browser.ErrNavigation)

	result := f.runner.Run(context.Background(), loginRequest())

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, 0, result.StepsExecuted)
	assert.Equal(t, 0, result.StepsPassed)
	assert.Equal(t, 0, result.StepsFailed)
	assert.Contains(t, result.ErrorMessage, "ERR_CONNECTION_REFUSED")
	assert.Equal(t, filepath.ToSlash(filepath.Join(f.baseDir, "login_ERROR.png")), result.ScreenshotURL)
	assert.Empty(t, result.DetailedResults)
	assert.Empty(t, f.page.Clicks)
	assert.Equal(t, 1, f.page.Closed())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestRunner_ErrorScreenshotIsBestEffort(t *testing.T) {
	f := newRunnerFixture(t, nil)
	f.page.NavigateErr = browser.ErrNavigation
	f.page.ScreenshotErr = errors.New("target closed")

	result := f.runner.Run(context.Background(), loginRequest())

	assert.Equal(t, StatusError, result.Status)
	assert.Empty(t, result.ScreenshotURL)
}

func TestRunner_LaunchErrorAborts(t *testing.T) {
	f := newRunnerFixture(t, nil)
	f.launcher.Err = fmt.Errorf("%w: executable doesn't exist", browser.ErrLaunch)

	result := f.runner.Run(context.Background(), loginRequest())

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.ErrorMessage, "executable doesn't exist")
	assert.Empty(t, result.ScreenshotURL)
	assert.Equal(t, 0, f.page.Closed())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestRunner_PanicBecomesError(t *testing.T) {
	f := newRunnerFixture(t, nil)
	f.page.PanicOnNavigate = true

	result := f.runner.Run(context.Background(), loginRequest())

	assert.Equal(t, StatusError, result.Status)
	assert.Contains(t, result.ErrorMessage, "navigation crashed")
	assert.Equal(t, 0, result.StepsExecuted)
	assert.NotEmpty(t, result.ScreenshotURL)
	assert.Equal(t, 1, f.page.Closed())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestRunner_Webhook(t *testing.T) {
	t.Run("dispatches the returned result once", func(t *testing.T) {
		f := newRunnerFixture(t, loginPage)
		req := loginRequest()
		req.WebhookURL = "https://hooks.example.com/n8n"

		result := f.runner.Run(context.Background(), req)

		require.Len(t, f.notifier.calls, 1)
		assert.Equal(t, "https://hooks.example.com/n8n", f.notifier.calls[0].url)
		assert.Same(t, result, f.notifier.calls[0].payload)
	})

	t.Run("dispatches error results", func(t *testing.T) {
		f := newRunnerFixture(t, nil)
		f.launcher.Err = browser.ErrLaunch
		req := loginRequest()
		req.WebhookURL = "https://hooks.example.com/n8n"

		f.runner.Run(context.Background(), req)

		assert.Len(t, f.notifier.calls, 1)
	})

	t.Run("skipped without url", func(t *testing.T) {
		f := newRunnerFixture(t, loginPage)

		f.runner.Run(context.Background(), loginRequest())

		assert.Empty(t, f.notifier.calls)
	})
}

func TestRunner_RecordsHistoryAndMetrics(t *testing.T) {
	f := newRunnerFixture(t, loginPage)

	result := f.runner.Run(context.Background(), loginRequest())

	runs, err := f.history.List(context.Background(), history.ListFilter{TestID: "login"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.StatusPass, runs[0].Status)
	assert.Equal(t, 3, runs[0].StepsPassed)
	assert.Equal(t, "chrome", runs[0].Browser)

	var details []step.Result
	require.NoError(t, json.Unmarshal(runs[0].DetailedResults, &details))
	assert.Len(t, details, 3)

	require.Len(t, f.recorder.runs, 1)
	assert.Equal(t, "PASS", f.recorder.runs[0].status)
	assert.Equal(t, result.Duration, f.recorder.runs[0].duration)
}

func TestRunner_IgnoresCallerCancellation(t *testing.T) {
	f := newRunnerFixture(t, loginPage)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.runner.Run(ctx, loginRequest())

	assert.Equal(t, StatusPass, result.Status)
}

func TestRunner_ConcurrentRunsReleaseSessions(t *testing.T) {
	f := newRunnerFixture(t, loginPage)
	f.runner.history = nil

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := loginRequest()
			req.TestID = fmt.Sprintf("login-%d", i)
			result := f.runner.Run(context.Background(), req)
			assert.Equal(t, StatusPass, result.Status)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, f.sessions.Len())
	assert.Equal(t, 20, f.page.Closed())
}

func TestTestRequest_Validate(t *testing.T) {
	valid := func() TestRequest {
		return TestRequest{TestID: "login", URL: "https://example.com", Steps: []step.Step{}}
	}

	tests := []struct {
		name    string
		modify  func(r *TestRequest)
		wantErr error
	}{
		{name: "valid", modify: func(r *TestRequest) {}},
		{name: "missing test id", modify: func(r *TestRequest) { r.TestID = "" }, wantErr: ErrInvalidTestID},
		{name: "missing url", modify: func(r *TestRequest) { r.URL = "" }, wantErr: ErrInvalidURL},
		{name: "missing steps", modify: func(r *TestRequest) { r.Steps = nil }, wantErr: ErrMissingSteps},
		{name: "unknown browser", modify: func(r *TestRequest) { r.Browser = "safari" }, wantErr: ErrInvalidBrowser},
		{name: "firefox", modify: func(r *TestRequest) { r.Browser = browser.Firefox }},
		{name: "bad webhook", modify: func(r *TestRequest) { r.WebhookURL = "not a url" }, wantErr: ErrInvalidWebhookURL},
		{name: "webhook scheme", modify: func(r *TestRequest) { r.WebhookURL = "ftp://example.com/x" }, wantErr: ErrInvalidWebhookURL},
		{name: "https webhook", modify: func(r *TestRequest) { r.WebhookURL = "https://n8n.example.com/webhook/abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.modify(&req)
			err := req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTestRequest_Defaults(t *testing.T) {
	var req TestRequest
	require.NoError(t, json.Unmarshal([]byte(`{"test_id":"a","url":"https://x","steps":[]}`), &req))
	assert.Equal(t, browser.Chrome, req.BrowserType())
	assert.True(t, req.IsHeadless())

	require.NoError(t, json.Unmarshal([]byte(`{"browser":"edge","headless":false}`), &req))
	assert.Equal(t, browser.Edge, req.BrowserType())
	assert.False(t, req.IsHeadless())
}
