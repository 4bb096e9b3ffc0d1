package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
)

// PNG is the payload returned by FakePage screenshots.
var PNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// FakePage is a scripted browser.Page. Elements maps visible selectors to
// their text; any other selector is reported as not found.
type FakePage struct {
	mu sync.Mutex

	Elements map[string]string

	NavigateErr   error
	ScreenshotErr error
	ClickErr      error

	// ClickFailures makes the first N clicks fail with ClickErr or a driver error.
	ClickFailures int
	// PanicOnClick makes every click panic.
	PanicOnClick bool
	// PanicOnNavigate makes every navigation panic.
	PanicOnNavigate bool

	Navigations []string
	Clicks      []string
	Fills       map[string]string
	Screenshots int
	CloseCount  int
}

// NewFakePage creates a page showing the given elements.
func NewFakePage(elements map[string]string) *FakePage {
	if elements == nil {
		elements = make(map[string]string)
	}
	return &FakePage{
		Elements: elements,
		Fills:    make(map[string]string),
	}
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PanicOnNavigate {
		panic("navigation crashed")
	}
	p.Navigations = append(p.Navigations, url)
	return p.NavigateErr
}

func (p *FakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.Elements[selector]; !ok {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return nil
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PanicOnClick {
		panic("click crashed")
	}
	p.Clicks = append(p.Clicks, selector)
	if p.ClickFailures > 0 {
		p.ClickFailures--
		if p.ClickErr != nil {
			return p.ClickErr
		}
		return fmt.Errorf("element %s is detached", selector)
	}
	return nil
}

func (p *FakePage) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Fills[selector] = value
	return nil
}

func (p *FakePage) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	text, ok := p.Elements[selector]
	if !ok {
		return "", fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return text, nil
}

func (p *FakePage) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ScreenshotErr != nil {
		return nil, p.ScreenshotErr
	}
	p.Screenshots++
	return PNG, nil
}

func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CloseCount++
	return nil
}

// Closed reports how many times Close was called.
func (p *FakePage) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CloseCount
}

// FakeLauncher hands out a fixed page, or fails with Err.
type FakeLauncher struct {
	mu sync.Mutex

	Page *FakePage
	Err  error

	Launched []browser.Options
}

func (l *FakeLauncher) Launch(ctx context.Context, opts browser.Options) (browser.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Launched = append(l.Launched, opts)
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Page, nil
}
