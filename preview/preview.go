// Package preview drives a Chromium page through Playwright so the style
// injection pipeline can be checked against the live chat page without the
// desktop shell.
package preview

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"chatoverlay/logging"
	"chatoverlay/window"
)

// ErrNoSettingsWindow is returned by OpenSettings; a preview has no settings
// surface.
var ErrNoSettingsWindow = errors.New("settings window not available in preview")

// Options configures the browser.
type Options struct {
	Headless bool
	Width    int
	Height   int
	Timeout  time.Duration
	// SkipInstall assumes the Playwright driver and browsers are present.
	SkipInstall bool
}

// Browser is a single Chromium page. It satisfies window.Handle, so the
// orchestrator can drive it like the overlay window. Native window
// properties are recorded but have no visible effect.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	log     *logging.Logger
	timeout time.Duration

	mu     sync.Mutex
	locked bool
	onLoad func(url string)
}

var _ window.Handle = (*Browser)(nil)

// Launch installs (unless skipped) and starts Playwright, then opens a
// Chromium page.
func Launch(opts Options, log *logging.Logger) (*Browser, error) {
	if log == nil {
		log = logging.Discard()
	}
	if opts.Width <= 0 {
		opts.Width = 400
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if !opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: opts.Width, Height: opts.Height},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	b := &Browser{pw: pw, browser: browser, page: page, log: log, timeout: opts.Timeout}
	page.OnLoad(func(p playwright.Page) {
		b.mu.Lock()
		fn := b.onLoad
		b.mu.Unlock()
		if fn != nil {
			go fn(p.URL())
		}
	})
	return b, nil
}

// OnLoad registers fn to run, on its own goroutine, after every page load.
func (b *Browser) OnLoad(fn func(url string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onLoad = fn
}

// Navigate loads url and waits for the load event.
func (b *Browser) Navigate(url string) error {
	if _, err := b.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Screenshot writes a PNG of the page to path.
func (b *Browser) Screenshot(path string) error {
	if _, err := b.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	}); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// Close shuts the browser and the Playwright driver down.
func (b *Browser) Close() error {
	var errs []error
	if err := b.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser: %w", err))
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
	}
	return errors.Join(errs...)
}

// Locked reports the last lock state applied through the window handle.
func (b *Browser) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// SetIgnoreCursorEvents records the click-through state.
func (b *Browser) SetIgnoreCursorEvents(ignore bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locked = ignore
	return nil
}

func (b *Browser) SetDecorations(bool) error { return nil }
func (b *Browser) SetAlwaysOnTop(bool) error { return nil }
func (b *Browser) SetShadow(bool) error      { return nil }

// Eval runs js as a function body in the page.
func (b *Browser) Eval(js string) error {
	if _, err := b.page.Evaluate("() => {\n" + js + "\n}"); err != nil {
		return fmt.Errorf("evaluate failed: %w", err)
	}
	return nil
}

// Reload reloads the page.
func (b *Browser) Reload() error {
	if _, err := b.page.Reload(); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

// URL returns the page's current URL.
func (b *Browser) URL() (string, error) {
	return b.page.URL(), nil
}

// MainWindow returns the page as the overlay window.
func (b *Browser) MainWindow() (window.Handle, error) {
	return b, nil
}

// OpenSettings always fails; the preview has no settings surface.
func (b *Browser) OpenSettings() error {
	return ErrNoSettingsWindow
}

// ShowError logs the message instead of showing a dialog.
func (b *Browser) ShowError(title, message string) {
	b.log.Errorf("%s: %s", title, message)
}
