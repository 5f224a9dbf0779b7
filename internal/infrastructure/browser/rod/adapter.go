package rod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

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
	screenshotQuality      = 80
)

const scriptSetValue = `(v) => {
	this.value = v;
	this.dispatchEvent(new Event('input', { bubbles: true }));
	this.dispatchEvent(new Event('change', { bubbles: true }));
}`

type DriverAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page

	mu            sync.Mutex
	loadTimeout   time.Duration
	actionTimeout time.Duration
	closed        bool
}

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	NoSandbox  bool
	DevTools   bool
	Bin        string
	// ActionTimeout bounds every element action. A covered element otherwise
	// makes rod retry its interactable check forever.
	ActionTimeout time.Duration
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:      false,
		NoSandbox:     true,
		ActionTimeout: defaultActionTimeout,
	}
}

// Factory returns a DriverFactory that launches a fresh Chromium per session.
func Factory(cfg BrowserConfig) output.DriverFactory {
	return func(ctx context.Context, opts output.DriverOptions) (output.DriverPort, error) {
		c := cfg
		c.Headless = opts.Headless
		if opts.ActionTimeout > 0 {
			c.ActionTimeout = opts.ActionTimeout
		}
		return NewDriverAdapter(ctx, c)
	}
}

func NewDriverAdapter(ctx context.Context, cfg BrowserConfig) (*DriverAdapter, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(cfg.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	action := cfg.ActionTimeout
	if action <= 0 {
		action = defaultActionTimeout
	}
	return &DriverAdapter{
		browser:       browser,
		launcher:      l,
		page:          page,
		loadTimeout:   defaultPageLoadTimeout,
		actionTimeout: action,
	}, nil
}

func (d *DriverAdapter) SetPageLoadTimeout(t time.Duration) {
	if t <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loadTimeout = t
}

func (d *DriverAdapter) timeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadTimeout
}

// act scopes e to ctx and the action timeout. Callers must run the returned
// cancel once the action is done.
func (d *DriverAdapter) act(ctx context.Context, e *rod.Element) (*rod.Element, func()) {
	return d.wrapOne(e).scoped(ctx)
}

func (d *DriverAdapter) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx).Timeout(d.timeout())
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page load failed: %w", mapWaitErr(err))
	}
	return nil
}

func (d *DriverAdapter) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (d *DriverAdapter) FindOne(ctx context.Context, selector string) (output.Element, error) {
	ok, el, err := d.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", selector, output.ErrNotFound)
	}
	return d.wrapOne(el), nil
}

func (d *DriverAdapter) FindAll(ctx context.Context, selector string) ([]output.Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	return wrap(els, d.actionTimeout), nil
}

// FindByText returns elements under selector whose visible text contains text.
func (d *DriverAdapter) FindByText(ctx context.Context, selector, text string) ([]output.Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	var out []output.Element
	for _, el := range els {
		b, cancel := d.act(ctx, el)
		t, err := b.Text()
		cancel()
		if err != nil {
			continue
		}
		if strings.Contains(t, text) {
			out = append(out, d.wrapOne(el))
		}
	}
	return out, nil
}

func (d *DriverAdapter) WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) (output.Element, error) {
	p := d.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, mapWaitErr(err))
	}
	return d.wrapOne(el), nil
}

func (d *DriverAdapter) Click(ctx context.Context, el output.Element) error {
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	b, cancel := d.act(ctx, e)
	defer cancel()
	if err := b.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", mapWaitErr(err))
	}
	return nil
}

func (d *DriverAdapter) ScriptClick(ctx context.Context, el output.Element) error {
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	b, cancel := d.act(ctx, e)
	defer cancel()
	if _, err := b.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("script click failed: %w", mapWaitErr(err))
	}
	return nil
}

func (d *DriverAdapter) TypeText(ctx context.Context, el output.Element, text string) error {
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	b, cancel := d.act(ctx, e)
	defer cancel()
	if err := b.SelectAllText(); err == nil {
		_ = b.Input("")
	}
	if err := b.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", mapWaitErr(err))
	}
	return nil
}

// ScriptSetValue passes text as an argument rather than splicing it into source.
func (d *DriverAdapter) ScriptSetValue(ctx context.Context, el output.Element, text string) error {
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	b, cancel := d.act(ctx, e)
	defer cancel()
	if _, err := b.Eval(scriptSetValue, text); err != nil {
		return fmt.Errorf("script value failed: %w", mapWaitErr(err))
	}
	return nil
}

func (d *DriverAdapter) IsChecked(ctx context.Context, el output.Element) (bool, error) {
	e, err := unwrap(el)
	if err != nil {
		return false, err
	}
	b, cancel := d.act(ctx, e)
	defer cancel()
	v, err := b.Property("checked")
	if err != nil {
		return false, fmt.Errorf("read checked: %w", mapWaitErr(err))
	}
	return v.Bool(), nil
}

func (d *DriverAdapter) RunScript(ctx context.Context, js string, args ...any) (string, error) {
	res, err := d.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return "", fmt.Errorf("script failed: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return "", nil
	}
	return res.Value.String(), nil
}

func (d *DriverAdapter) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(screenshotQuality),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (d *DriverAdapter) HTML(ctx context.Context) (string, error) {
	html, err := d.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (d *DriverAdapter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var err error
	if d.browser != nil {
		err = d.browser.Close()
	}
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
	}
	return err
}

type element struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *element) scoped(ctx context.Context) (*rod.Element, func()) {
	if e.timeout <= 0 {
		return e.el.Context(ctx), func() {}
	}
	b := e.el.Context(ctx).Timeout(e.timeout)
	return b, func() { b.CancelTimeout() }
}

func (e *element) Text(ctx context.Context) (string, error) {
	b, cancel := e.scoped(ctx)
	defer cancel()
	t, err := b.Text()
	return t, mapWaitErr(err)
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	b, cancel := e.scoped(ctx)
	defer cancel()
	v, err := b.Attribute(name)
	if err != nil {
		return "", false, mapWaitErr(err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *element) FindAll(ctx context.Context, selector string) ([]output.Element, error) {
	b, cancel := e.scoped(ctx)
	defer cancel()
	els, err := b.Elements(selector)
	if err != nil {
		return nil, mapWaitErr(err)
	}
	return wrap(els, e.timeout), nil
}

func (d *DriverAdapter) wrapOne(el *rod.Element) *element {
	return &element{el: el, timeout: d.actionTimeout}
}

func wrap(els rod.Elements, timeout time.Duration) []output.Element {
	out := make([]output.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el, timeout: timeout})
	}
	return out
}

func unwrap(el output.Element) (*rod.Element, error) {
	e, ok := el.(*element)
	if !ok || e == nil || e.el == nil {
		return nil, fmt.Errorf("unsupported element %T", el)
	}
	return e.el, nil
}

func mapWaitErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", output.ErrTimeout, err)
	}
	return err
}
