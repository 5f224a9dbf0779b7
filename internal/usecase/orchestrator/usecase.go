package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"epbm-autofill/internal/application/port/input"
	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/application/service"
	"epbm-autofill/internal/domain/entity"
	"epbm-autofill/internal/usecase/auth"
	"epbm-autofill/internal/usecase/discovery"
	"epbm-autofill/internal/usecase/filler"
	"epbm-autofill/internal/usecase/progress"
)

var (
	_ input.FillRunner      = (*UseCase)(nil)
	_ input.DiscoveryRunner = (*UseCase)(nil)
)

type Config struct {
	Surface         entity.Surface
	Timing          entity.Timing
	MaxPagesPerItem int
	Diagnostics     output.DiagnosticsPort
}

// UseCase runs discovery and fill passes, one at a time, each on a fresh
// driver session that is always closed before the outcome is reported.
type UseCase struct {
	newDriver output.DriverFactory
	presenter output.PresenterPort
	logger    output.LoggerPort
	cfg       Config

	running atomic.Bool
}

func New(
	newDriver output.DriverFactory,
	presenter output.PresenterPort,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	return &UseCase{
		newDriver: newDriver,
		presenter: presenter,
		logger:    logger,
		cfg:       cfg,
	}
}

// Busy reports whether a discovery or fill pass is in flight.
func (uc *UseCase) Busy() bool {
	return uc.running.Load()
}

// Start launches a fill pass in the background. The channel yields exactly one
// outcome and is then closed.
func (uc *UseCase) Start(ctx context.Context, rc entity.RunContext) (<-chan entity.RunOutcome, error) {
	if !uc.running.CompareAndSwap(false, true) {
		return nil, entity.ErrRunInProgress
	}
	out := make(chan entity.RunOutcome, 1)
	go func() {
		defer close(out)
		defer uc.running.Store(false)
		out <- uc.fill(ctx, rc)
	}()
	return out, nil
}

// Run is the blocking form of Start.
func (uc *UseCase) Run(ctx context.Context, rc entity.RunContext) entity.RunOutcome {
	if !uc.running.CompareAndSwap(false, true) {
		return uc.refuse()
	}
	defer uc.running.Store(false)
	return uc.fill(ctx, rc)
}

func (uc *UseCase) Discover(ctx context.Context, creds entity.Credentials) entity.DiscoveryOutcome {
	if !uc.running.CompareAndSwap(false, true) {
		o := uc.refuse()
		return entity.DiscoveryOutcome{Success: o.Success, Message: o.Message}
	}
	defer uc.running.Store(false)
	return uc.discover(ctx, creds)
}

func (uc *UseCase) refuse() entity.RunOutcome {
	msg := "Another run is still in progress."
	uc.logger.Warn("Run refused", "error", entity.ErrRunInProgress)
	uc.presenter.OnRunOutcome(false, msg)
	return entity.RunOutcome{Success: false, Message: msg}
}

func (uc *UseCase) fill(ctx context.Context, rc entity.RunContext) entity.RunOutcome {
	log := uc.logger.WithFields(map[string]any{"run_id": rc.ID, "run": "fill"})
	log.Info("Fill run starting", "items", len(rc.Selection), "headless", rc.Headless)

	outcome := uc.withDriver(ctx, rc.Headless, log, func(driver output.DriverPort) entity.RunOutcome {
		return uc.fillItems(ctx, driver, rc, log)
	})

	log.Info("Fill run finished", "success", outcome.Success, "message", outcome.Message)
	uc.presenter.OnRunOutcome(outcome.Success, outcome.Message)
	return outcome
}

func (uc *UseCase) discover(ctx context.Context, creds entity.Credentials) entity.DiscoveryOutcome {
	log := uc.logger.WithField("run", "discover")
	log.Info("Discovery run starting")

	var items []entity.WorkItem
	outcome := uc.withDriver(ctx, true, log, func(driver output.DriverPort) entity.RunOutcome {
		if err := auth.New(driver, uc.cfg.Surface, uc.cfg.Timing, uc.presenter, log).Authenticate(ctx, creds); err != nil {
			return uc.authFailure(err, log)
		}

		found, err := discovery.New(driver, uc.cfg.Surface, uc.presenter, log).Discover(ctx)
		if err != nil {
			log.Error("Discovery failed", "error", err)
			uc.presenter.OnLog("Could not read the questionnaire list: "+service.UserMessage(err), entity.LevelError)
			return entity.RunOutcome{Message: "Could not read the questionnaire list."}
		}
		if len(found) == 0 {
			return entity.RunOutcome{Message: "No questionnaires found on the EPBM page."}
		}
		items = found
		return entity.RunOutcome{
			Success: true,
			Message: fmt.Sprintf("Found %d questionnaires, %d still to fill.", len(found), len(found)-entity.CountCompleted(found)),
		}
	})

	if len(items) > 0 {
		uc.presenter.OnItemsDiscovered(items)
	}
	log.Info("Discovery run finished", "success", outcome.Success, "items", len(items))
	uc.presenter.OnRunOutcome(outcome.Success, outcome.Message)
	return entity.DiscoveryOutcome{Success: outcome.Success, Message: outcome.Message, Items: items}
}

// withDriver opens a session, hands it to body and closes it whatever body did.
func (uc *UseCase) withDriver(
	ctx context.Context,
	headless bool,
	log output.LoggerPort,
	body func(output.DriverPort) entity.RunOutcome,
) (outcome entity.RunOutcome) {
	uc.presenter.OnLog("Starting browser...", entity.LevelInfo)
	driver, err := uc.newDriver(ctx, output.DriverOptions{
		Headless:      headless,
		ActionTimeout: uc.cfg.Timing.ControlWait,
	})
	if err != nil {
		log.Error("Browser start failed", "error", err)
		uc.presenter.OnLog("Could not start the browser: "+service.UserMessage(err), entity.LevelError)
		return entity.RunOutcome{Message: "Could not start the browser."}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Run panicked", "panic", r)
			outcome = entity.RunOutcome{Message: fmt.Sprintf("Unexpected error: %v", r)}
		}
		if err := driver.Close(); err != nil {
			log.Warn("Browser close failed", "error", err)
		}
		uc.presenter.OnLog("Browser closed.", entity.LevelInfo)
	}()

	return body(driver)
}

func (uc *UseCase) fillItems(ctx context.Context, driver output.DriverPort, rc entity.RunContext, log output.LoggerPort) entity.RunOutcome {
	if err := auth.New(driver, uc.cfg.Surface, uc.cfg.Timing, uc.presenter, log).Authenticate(ctx, rc.Credentials); err != nil {
		return uc.authFailure(err, log)
	}
	driver.SetPageLoadTimeout(uc.cfg.Timing.PageLoadTimeout)

	total := len(rc.Selection)
	est := progress.NewEstimator(total)
	uc.presenter.OnProgress(est.Percent())

	engine := filler.New(driver, filler.Config{
		Surface:     uc.cfg.Surface,
		Timing:      uc.cfg.Timing,
		Settings:    rc.Settings,
		MaxPages:    uc.cfg.MaxPagesPerItem,
		RunID:       rc.ID,
		Diagnostics: uc.cfg.Diagnostics,
	}, log)

	// Items are never interrupted halfway; cancellation is honoured between them.
	itemCtx := context.WithoutCancel(ctx)

	var saved, failed, skipped, attempted int
	cancelled, stranded := false, false
	for i, item := range rc.Selection {
		if ctx.Err() != nil {
			cancelled = true
			log.Warn("Run cancelled", "remaining", total-i, "error", errors.Join(entity.ErrCancelled, ctx.Err()))
			uc.presenter.OnLog(fmt.Sprintf("Cancelled, %d questionnaire(s) left untouched.", total-i), entity.LevelWarning)
			break
		}

		attempted++
		uc.presenter.OnLog(fmt.Sprintf("[%d/%d] %s", i+1, total, item.Label()), entity.LevelInfo)
		tracker := est.ForItem(uc.presenter.OnProgress)

		res, err := engine.Fill(itemCtx, item, &itemReporter{presenter: uc.presenter, tracker: tracker})
		tracker.Settle()

		switch {
		case err != nil && res.Saved:
			saved++
			uc.presenter.OnLog(fmt.Sprintf("Saved %q, then hit a problem: %s", item.Label(), service.UserMessage(err)), entity.LevelWarning)
		case err != nil:
			failed++
			uc.presenter.OnLog(fmt.Sprintf("Failed to fill %q: %s", item.Label(), service.UserMessage(err)), entity.LevelError)
			if service.HasStackTrace(err) {
				uc.presenter.OnLog("Full error details were written to the log file.", entity.LevelInfo)
			}
		case res.Skipped:
			skipped++
		case res.Saved:
			saved++
		}

		if errors.Is(err, entity.ErrNavigationFailed) {
			stranded = true
			left := total - i - 1
			log.Error("Landing page lost, stopping run", "remaining", left)
			uc.presenter.OnLog(fmt.Sprintf("Could not get back to the EPBM page, %d questionnaire(s) left untouched.", left), entity.LevelError)
			break
		}
	}

	uc.presenter.OnProgress(est.Finish())

	summary := fmt.Sprintf("saved %d of %d questionnaire(s)", saved, total)
	if failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
	}
	if skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", skipped)
	}
	log.Info("Items processed", "attempted", attempted, "saved", saved, "failed", failed, "skipped", skipped)

	if cancelled {
		return entity.RunOutcome{Message: "Run cancelled: " + summary + "."}
	}
	if stranded {
		return entity.RunOutcome{Message: "Run stopped: " + summary + "."}
	}
	return entity.RunOutcome{Success: true, Message: "Automation finished: " + summary + "."}
}

func (uc *UseCase) authFailure(err error, log output.LoggerPort) entity.RunOutcome {
	log.Error("Authentication failed", "error", err)
	var msg string
	switch {
	case errors.Is(err, entity.ErrInvalidCredentials):
		msg = "Login failed: username or password is incorrect."
	case errors.Is(err, entity.ErrLoginDidNotComplete):
		msg = "Login failed: the portal did not accept the sign-in. Check your username and password."
	default:
		msg = "The EPBM page could not be reached: " + service.UserMessage(err)
	}
	uc.presenter.OnLog(msg, entity.LevelError)
	return entity.RunOutcome{Message: msg}
}

type itemReporter struct {
	presenter output.PresenterPort
	tracker   *progress.ItemTracker
}

func (r *itemReporter) Log(line string, level entity.LogLevel) {
	r.presenter.OnLog(line, level)
}

func (r *itemReporter) Reach(cp entity.Checkpoint) {
	r.tracker.Reach(cp)
}
