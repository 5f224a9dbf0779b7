// Package pwdriver drives the portal through playwright-go, as an
// alternative to the rod engine.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"epbm-autofill/internal/application/port/output"
)

var (
	_ output.DriverPort  = (*DriverAdapter)(nil)
	_ output.Snapshotter = (*DriverAdapter)(nil)
	_ output.Element     = (*element)(nil)
)

const (
	defaultPageLoadTimeout = 15 * time.Second
	defaultActionTimeout   = 5 * time.Second
)

type Config struct {
	Headless bool
	// Install downloads the browser binaries on first use.
	Install bool
	// ActionTimeout bounds element actions and selector waits without an
	// explicit timeout.
	ActionTimeout time.Duration
}

type DriverAdapter struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	mu     sync.Mutex
	closed bool
}

func Factory(cfg Config) output.DriverFactory {
	return func(ctx context.Context, opts output.DriverOptions) (output.DriverPort, error) {
		c := cfg
		c.Headless = opts.Headless
		if opts.ActionTimeout > 0 {
			c.ActionTimeout = opts.ActionTimeout
		}
		return NewDriverAdapter(c)
	}
}

func NewDriverAdapter(cfg Config) (*DriverAdapter, error) {
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if cfg.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	action := cfg.ActionTimeout
	if action <= 0 {
		action = defaultActionTimeout
	}
	page.SetDefaultTimeout(millis(action))
	page.SetDefaultNavigationTimeout(millis(defaultPageLoadTimeout))

	return &DriverAdapter{pw: pw, browser: browser, page: page}, nil
}

func (d *DriverAdapter) Navigate(ctx context.Context, url string) error {
	if _, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("navigation failed: %w", mapErr(err))
	}
	return nil
}

func (d *DriverAdapter) CurrentURL(ctx context.Context) (string, error) {
	return d.page.URL(), nil
}

func (d *DriverAdapter) SetPageLoadTimeout(t time.Duration) {
	if t > 0 {
		d.page.SetDefaultNavigationTimeout(millis(t))
	}
}

func (d *DriverAdapter) FindOne(ctx context.Context, selector string) (output.Element, error) {
	els, err := d.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, output.ErrNotFound)
	}
	return els[0], nil
}

func (d *DriverAdapter) FindAll(ctx context.Context, selector string) ([]output.Element, error) {
	handles, err := d.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	return wrap(handles), nil
}

func (d *DriverAdapter) FindByText(ctx context.Context, selector, text string) ([]output.Element, error) {
	handles, err := d.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	var out []output.Element
	for _, h := range handles {
		t, err := h.InnerText()
		if err != nil {
			continue
		}
		if strings.Contains(t, text) {
			out = append(out, &element{h: h})
		}
	}
	return out, nil
}

func (d *DriverAdapter) WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) (output.Element, error) {
	h, err := d.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(timeout)),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, mapErr(err))
	}
	return &element{h: h}, nil
}

func (d *DriverAdapter) Click(ctx context.Context, el output.Element) error {
	h, err := unwrap(el)
	if err != nil {
		return err
	}
	if err := h.Click(); err != nil {
		return fmt.Errorf("click failed: %w", mapErr(err))
	}
	return nil
}

func (d *DriverAdapter) ScriptClick(ctx context.Context, el output.Element) error {
	h, err := unwrap(el)
	if err != nil {
		return err
	}
	if _, err := h.Evaluate(`el => el.click()`); err != nil {
		return fmt.Errorf("script click failed: %w", err)
	}
	return nil
}

func (d *DriverAdapter) TypeText(ctx context.Context, el output.Element, text string) error {
	h, err := unwrap(el)
	if err != nil {
		return err
	}
	if err := h.Fill(text); err != nil {
		return fmt.Errorf("fill failed: %w", mapErr(err))
	}
	return nil
}

func (d *DriverAdapter) ScriptSetValue(ctx context.Context, el output.Element, text string) error {
	h, err := unwrap(el)
	if err != nil {
		return err
	}
	_, err = h.Evaluate(`(el, v) => {
		el.value = v;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
	}`, text)
	if err != nil {
		return fmt.Errorf("script value failed: %w", err)
	}
	return nil
}

func (d *DriverAdapter) IsChecked(ctx context.Context, el output.Element) (bool, error) {
	h, err := unwrap(el)
	if err != nil {
		return false, err
	}
	return h.IsChecked()
}

func (d *DriverAdapter) RunScript(ctx context.Context, js string, args ...any) (string, error) {
	var (
		res any
		err error
	)
	switch len(args) {
	case 0:
		res, err = d.page.Evaluate(js)
	case 1:
		res, err = d.page.Evaluate(js, args[0])
	default:
		res, err = d.page.Evaluate(js, args)
	}
	if err != nil {
		return "", fmt.Errorf("script failed: %w", err)
	}
	if res == nil {
		return "", nil
	}
	return fmt.Sprint(res), nil
}

func (d *DriverAdapter) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (d *DriverAdapter) HTML(ctx context.Context) (string, error) {
	return d.page.Content()
}

func (d *DriverAdapter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return errors.Join(d.browser.Close(), d.pw.Stop())
}

type element struct {
	h playwright.ElementHandle
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.h.InnerText()
}

// Attribute reports an empty attribute as absent; playwright does not
// distinguish the two.
func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.h.GetAttribute(name)
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

func (e *element) FindAll(ctx context.Context, selector string) ([]output.Element, error) {
	handles, err := e.h.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	return wrap(handles), nil
}

func wrap(handles []playwright.ElementHandle) []output.Element {
	out := make([]output.Element, 0, len(handles))
	for _, h := range handles {
		out = append(out, &element{h: h})
	}
	return out
}

func unwrap(el output.Element) (playwright.ElementHandle, error) {
	e, ok := el.(*element)
	if !ok || e == nil || e.h == nil {
		return nil, fmt.Errorf("unsupported element %T", el)
	}
	return e.h, nil
}

func mapErr(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", output.ErrTimeout, err)
	}
	return err
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
