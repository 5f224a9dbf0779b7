package output

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("element not found")
	ErrTimeout  = errors.New("wait timed out")
)

// Element is an opaque handle to a node on the current page. Handles go
// stale after navigation; callers re-query instead of caching them.
type Element interface {
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	FindAll(ctx context.Context, selector string) ([]Element, error)
}

type DriverPort interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	SetPageLoadTimeout(d time.Duration)

	FindOne(ctx context.Context, selector string) (Element, error)
	FindAll(ctx context.Context, selector string) ([]Element, error)
	FindByText(ctx context.Context, selector, text string) ([]Element, error)
	WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	Click(ctx context.Context, el Element) error
	ScriptClick(ctx context.Context, el Element) error
	TypeText(ctx context.Context, el Element, text string) error
	ScriptSetValue(ctx context.Context, el Element, text string) error
	IsChecked(ctx context.Context, el Element) (bool, error)
	RunScript(ctx context.Context, js string, args ...any) (string, error)

	Close() error
}

// Snapshotter is implemented by drivers that can capture the page for diagnostics.
type Snapshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
}

type DriverOptions struct {
	Headless bool
	// ActionTimeout bounds each element action (click, typing, property
	// reads). Zero keeps the driver default.
	ActionTimeout time.Duration
}

type DriverFactory func(ctx context.Context, opts DriverOptions) (DriverPort, error)
