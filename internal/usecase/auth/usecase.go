package auth

import (
	"context"
	"errors"
	"strings"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/application/service"
	"epbm-autofill/internal/domain/entity"
)

// UseCase signs a driver session into the portal and leaves it on the landing page.
type UseCase struct {
	interactor *service.Interactor
	driver     output.DriverPort
	surface    entity.Surface
	timing     entity.Timing
	presenter  output.PresenterPort
	logger     output.LoggerPort
}

func New(
	driver output.DriverPort,
	surface entity.Surface,
	timing entity.Timing,
	presenter output.PresenterPort,
	logger output.LoggerPort,
) *UseCase {
	return &UseCase{
		interactor: service.NewInteractor(driver, logger),
		driver:     driver,
		surface:    surface,
		timing:     timing,
		presenter:  presenter,
		logger:     logger,
	}
}

// Authenticate returns nil once the landing marker is visible. Failures are
// *entity.AuthError values classified as invalid credentials, an incomplete
// login, or an unavailable portal.
func (uc *UseCase) Authenticate(ctx context.Context, creds entity.Credentials) error {
	uc.logger.Info("Opening EPBM landing page", "url", uc.surface.LandingURL)
	uc.presenter.OnLog("Opening EPBM page...", entity.LevelInfo)

	if err := uc.driver.Navigate(ctx, uc.surface.LandingURL); err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}

	onLogin, err := uc.onLoginPage(ctx)
	if err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}
	if onLogin {
		if err := uc.signIn(ctx, creds); err != nil {
			return err
		}
	} else {
		uc.logger.Debug("Session already signed in")
	}

	if _, err := uc.driver.WaitUntilPresent(ctx, uc.surface.LandingMarker, uc.timing.LandingWait); err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}

	uc.presenter.OnLog("Login successful.", entity.LevelSuccess)
	uc.logger.Info("Authenticated", "user", creds.Username)
	return nil
}

func (uc *UseCase) onLoginPage(ctx context.Context) (bool, error) {
	url, err := uc.driver.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	if uc.isLoginURL(url) {
		return true, nil
	}
	els, err := uc.driver.FindAll(ctx, uc.surface.UsernameSelector)
	if err != nil {
		return false, err
	}
	return len(els) > 0, nil
}

func (uc *UseCase) signIn(ctx context.Context, creds entity.Credentials) error {
	uc.presenter.OnLog("Logging in...", entity.LevelInfo)

	user, err := uc.driver.WaitUntilPresent(ctx, uc.surface.UsernameSelector, uc.timing.LoginFieldWait)
	if err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}
	if _, err := uc.interactor.ResilientType(ctx, user, creds.Username); err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}

	pass, err := uc.driver.FindOne(ctx, uc.surface.PasswordSelector)
	if err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}
	if _, err := uc.interactor.ResilientType(ctx, pass, creds.Password); err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}

	submit, err := uc.driver.FindOne(ctx, uc.surface.LoginSubmitSelector)
	if err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}
	if err := uc.interactor.ResilientClick(ctx, submit); err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}

	service.Sleep(ctx, uc.timing.LoginSettle)

	if phrase, ok := uc.rejection(ctx); ok {
		uc.logger.Warn("Portal rejected credentials", "alert", phrase)
		return &entity.AuthError{Kind: entity.ErrInvalidCredentials}
	}

	url, err := uc.driver.CurrentURL(ctx)
	if err != nil {
		return &entity.AuthError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}
	if uc.isLoginURL(url) {
		return &entity.AuthError{Kind: entity.ErrLoginDidNotComplete, Err: errors.New("still on " + url)}
	}
	return nil
}

// rejection reports the first error banner whose text carries a known failure phrase.
func (uc *UseCase) rejection(ctx context.Context) (string, bool) {
	alerts, err := uc.driver.FindAll(ctx, uc.surface.AlertSelector)
	if err != nil {
		uc.logger.Debug("Could not read alerts", "error", err)
		return "", false
	}
	for _, a := range alerts {
		text, err := a.Text(ctx)
		if err != nil {
			continue
		}
		for _, phrase := range uc.surface.LoginFailurePhrases {
			if strings.Contains(text, phrase) {
				return strings.TrimSpace(text), true
			}
		}
	}
	return "", false
}

func (uc *UseCase) isLoginURL(url string) bool {
	token := strings.ToLower(uc.surface.LoginToken)
	return token != "" && strings.Contains(strings.ToLower(url), token)
}
