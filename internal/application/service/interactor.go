package service

import (
	"context"
	"fmt"
	"time"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/domain/entity"
)

// Interactor wraps a driver with the click and typing fallbacks the portal needs:
// native input first, a script-driven equivalent once if that fails.
type Interactor struct {
	driver output.DriverPort
	logger output.LoggerPort
}

func NewInteractor(driver output.DriverPort, logger output.LoggerPort) *Interactor {
	return &Interactor{driver: driver, logger: logger}
}

func (i *Interactor) ResilientClick(ctx context.Context, el output.Element) error {
	err := i.driver.Click(ctx, el)
	if err == nil {
		return nil
	}
	i.logger.Debug("Native click failed, falling back to script click", "error", err)

	if scriptErr := i.driver.ScriptClick(ctx, el); scriptErr != nil {
		return fmt.Errorf("%w: native: %v; script: %v", entity.ErrClickFailed, err, scriptErr)
	}
	return nil
}

// ResilientType replaces the element's value with text. It reports whether the
// script fallback had to be used.
func (i *Interactor) ResilientType(ctx context.Context, el output.Element, text string) (bool, error) {
	err := i.driver.TypeText(ctx, el, text)
	if err == nil {
		return false, nil
	}
	i.logger.Debug("Typing failed, falling back to script value", "error", err)

	if scriptErr := i.driver.ScriptSetValue(ctx, el, text); scriptErr != nil {
		return true, fmt.Errorf("set value: native: %v; script: %w", err, scriptErr)
	}
	return true, nil
}

// Sleep pauses for d unless ctx ends first.
func Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
