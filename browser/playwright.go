package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Default viewport for new sessions.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// PlaywrightLauncher launches browsers through a shared Playwright driver.
type PlaywrightLauncher struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	install     bool
	initialized bool
}

// NewPlaywrightLauncher creates a launcher. When install is true the browser
// binaries are downloaded on first use.
func NewPlaywrightLauncher(install bool) *PlaywrightLauncher {
	return &PlaywrightLauncher{install: install}
}

// Initialize starts the Playwright driver. It is safe to call more than once.
func (l *PlaywrightLauncher) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if l.install {
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.pw = pw
	l.initialized = true
	return nil
}

// Launch starts a new browser, context and page configured per opts.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts Options) (Page, error) {
	if err := l.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	browserType, launchOpts, err := l.launchTarget(opts)
	if err != nil {
		return nil, err
	}

	b, err := browserType.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: failed to create context: %v", ErrLaunch, err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		b.Close()
		return nil, fmt.Errorf("%w: failed to create page: %v", ErrLaunch, err)
	}

	if opts.DefaultTimeout > 0 {
		page.SetDefaultTimeout(milliseconds(opts.DefaultTimeout))
	}

	return &playwrightPage{
		browser: b,
		context: bctx,
		page:    page,
	}, nil
}

func (l *PlaywrightLauncher) launchTarget(opts Options) (playwright.BrowserType, playwright.BrowserTypeLaunchOptions, error) {
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch opts.Browser {
	case Chrome, "":
		return l.pw.Chromium, launchOpts, nil
	case Edge:
		launchOpts.Channel = playwright.String("msedge")
		return l.pw.Chromium, launchOpts, nil
	case Firefox:
		return l.pw.Firefox, launchOpts, nil
	default:
		return nil, launchOpts, fmt.Errorf("%w: %s", ErrUnsupportedBrowser, opts.Browser)
	}
}

// Shutdown stops the Playwright driver.
func (l *PlaywrightLauncher) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized || l.pw == nil {
		return nil
	}
	if err := l.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	l.initialized = false
	return nil
}

// playwrightPage implements Page on top of a Playwright page.
type playwrightPage struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

func (p *playwrightPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(milliseconds(timeout)),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return fmt.Errorf("%w: %q not visible after %s", ErrElementNotFound, selector, timeout)
		}
		return fmt.Errorf("wait for %q failed: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) Click(ctx context.Context, selector string) error {
	if err := p.page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("click %q failed: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) Fill(ctx context.Context, selector, value string) error {
	if err := p.page.Locator(selector).First().Fill(value); err != nil {
		return fmt.Errorf("fill %q failed: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) Text(ctx context.Context, selector string) (string, error) {
	text, err := p.page.Locator(selector).First().InnerText()
	if err != nil {
		return "", fmt.Errorf("read text of %q failed: %w", selector, err)
	}
	return text, nil
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := p.page.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return data, nil
}

// Close closes page, context and browser. Errors from earlier stages do not
// prevent later ones from being closed.
func (p *playwrightPage) Close() error {
	var errs []error
	if err := p.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
