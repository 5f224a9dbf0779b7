package filler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/application/service"
	"epbm-autofill/internal/domain/entity"
	"epbm-autofill/internal/usecase/rating"
)

const DefaultMaxPages = 30

var (
	errCardGone      = errors.New("card no longer listed")
	errCardAmbiguous = errors.New("several cards share the reference")
)

// Reporter receives user-facing lines and checkpoint notifications for one item.
type Reporter interface {
	Log(line string, level entity.LogLevel)
	Reach(cp entity.Checkpoint)
}

type Config struct {
	Surface     entity.Surface
	Timing      entity.Timing
	Settings    entity.RatingSettings
	MaxPages    int
	RunID       string
	Diagnostics output.DiagnosticsPort
}

// Result describes how a single item ended. Returned reports whether the
// session was navigated back to the landing page afterwards.
type Result struct {
	Saved    bool
	Skipped  bool
	DeadEnd  bool
	Returned bool
	Pages    int
}

type transition int

const (
	transitionSubmit transition = iota
	transitionNext
	transitionDeadEnd
)

type UseCase struct {
	interactor *service.Interactor
	driver     output.DriverPort
	policy     *rating.Policy
	cfg        Config
	logger     output.LoggerPort
}

func New(driver output.DriverPort, cfg Config, logger output.LoggerPort) *UseCase {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &UseCase{
		interactor: service.NewInteractor(driver, logger),
		driver:     driver,
		policy:     rating.NewPolicy(cfg.Settings),
		cfg:        cfg,
		logger:     logger,
	}
}

// Fill opens item's card, answers every page and saves it. Whatever happens,
// the session is steered back to the landing page before Fill returns, unless
// the item was skipped without leaving it.
func (uc *UseCase) Fill(ctx context.Context, item entity.WorkItem, rep Reporter) (res Result, err error) {
	log := uc.logger.WithFields(map[string]any{
		"item":     item.Label(),
		"index":    item.OrdinalIndex,
		"category": item.Category.String(),
	})

	defer func() {
		if r := recover(); r != nil {
			err = &entity.FillError{Item: item.Label(), Op: "fill", Kind: entity.ErrSaveFailed, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			log.Error("Item failed", "error", err)
			uc.capture(ctx, item, rep)
		}
		if res.Skipped || res.Returned {
			return
		}
		navErr := uc.returnHome(ctx, rep)
		if navErr == nil {
			res.Returned = true
			rep.Reach(entity.CheckpointReturned)
			return
		}
		lost := &entity.FillError{Item: item.Label(), Op: "return", Kind: entity.ErrNavigationFailed, Err: navErr}
		log.Error("Landing page unreachable", "error", lost)
		if err != nil {
			// The original failure stays first for errors.As.
			err = errors.Join(err, lost)
			return
		}
		err = lost
		uc.capture(ctx, item, rep)
	}()

	card, err := uc.locate(ctx, item)
	if errors.Is(err, errCardGone) {
		log.Warn("Card not found, skipping")
		rep.Log(fmt.Sprintf("Questionnaire %q is no longer listed, skipping.", item.Label()), entity.LevelWarning)
		return Result{Skipped: true}, nil
	}
	if errors.Is(err, errCardAmbiguous) {
		log.Warn("Card reference is ambiguous, skipping", "ref", item.TargetRef, "ordinal", item.OrdinalIndex)
		rep.Log(fmt.Sprintf("Cannot tell which card is %q, skipping.", item.Label()), entity.LevelWarning)
		return Result{Skipped: true}, nil
	}
	if err != nil {
		return res, &entity.FillError{Item: item.Label(), Op: "locate", Kind: entity.ErrElementNotFound, Err: err}
	}

	if err := uc.interactor.ResilientClick(ctx, card); err != nil {
		return res, &entity.FillError{Item: item.Label(), Op: "open", Kind: entity.ErrClickFailed, Err: err}
	}
	rep.Reach(entity.CheckpointOpened)
	service.Sleep(ctx, uc.cfg.Timing.CardSettle)

	if item.Category == entity.CategoryFacilities {
		return uc.fillFacilities(ctx, item, rep)
	}
	return uc.fillStandard(ctx, item, rep)
}

// locate finds the card for item on the current landing page. A reference,
// when present, is authoritative. The ordinal is used without one, and to
// pick among several cards sharing the reference.
func (uc *UseCase) locate(ctx context.Context, item entity.WorkItem) (output.Element, error) {
	if _, err := uc.driver.WaitUntilPresent(ctx, uc.cfg.Surface.CardSelector, uc.cfg.Timing.ControlWait); err != nil && !errors.Is(err, output.ErrTimeout) {
		return nil, err
	}
	cards, err := uc.driver.FindAll(ctx, uc.cfg.Surface.CardSelector)
	if err != nil {
		return nil, err
	}

	if item.TargetRef != "" {
		var matches []int
		for i, c := range cards {
			href, ok, err := c.Attribute(ctx, "href")
			if err != nil || !ok {
				continue
			}
			if strings.TrimSpace(href) == item.TargetRef {
				matches = append(matches, i)
			}
		}
		switch {
		case len(matches) == 0:
			return nil, errCardGone
		case len(matches) == 1:
			return cards[matches[0]], nil
		case slices.Contains(matches, item.OrdinalIndex):
			return cards[item.OrdinalIndex], nil
		default:
			return nil, errCardAmbiguous
		}
	}

	if item.OrdinalIndex < 0 || item.OrdinalIndex >= len(cards) {
		return nil, errCardGone
	}
	return cards[item.OrdinalIndex], nil
}

func (uc *UseCase) fillFacilities(ctx context.Context, item entity.WorkItem, rep Reporter) (Result, error) {
	res := Result{Pages: 1}
	rep.Log("Filling facilities questionnaire...", entity.LevelInfo)

	uc.applyRatings(ctx, entity.CategoryFacilities, "", rep)
	rep.Reach(entity.CheckpointControlsFilled)

	uc.tickCheckboxes(ctx, rep)
	rep.Reach(entity.CheckpointCheckboxesHandled)

	submit, err := uc.waitForButton(ctx, uc.cfg.Surface.SubmitLabel)
	if err != nil {
		return res, &entity.FillError{Item: item.Label(), Op: "save", Kind: entity.ErrSaveFailed, Err: err}
	}
	return uc.save(ctx, item, submit, res, rep)
}

func (uc *UseCase) fillStandard(ctx context.Context, item entity.WorkItem, rep Reporter) (Result, error) {
	var res Result

	if _, err := uc.driver.WaitUntilPresent(ctx, uc.cfg.Surface.RatingSelector, uc.cfg.Timing.ControlWait); err != nil {
		uc.logger.Debug("No rating controls on first page", "error", err)
	}

	for page := 0; ; page++ {
		if page >= uc.cfg.MaxPages {
			rep.Log(fmt.Sprintf("Gave up after %d pages without a save button.", uc.cfg.MaxPages), entity.LevelWarning)
			return res, &entity.FillError{
				Item: item.Label(),
				Op:   "paginate",
				Kind: entity.ErrSaveFailed,
				Err:  fmt.Errorf("page limit %d reached", uc.cfg.MaxPages),
			}
		}
		res.Pages = page + 1

		heading := uc.heading(ctx)
		if heading != "" {
			rep.Log("Page: "+heading, entity.LevelInfo)
		}

		uc.applyRatings(ctx, entity.CategoryStandard, heading, rep)
		if page == 0 {
			rep.Reach(entity.CheckpointControlsFilled)
		}

		if uc.cfg.Surface.SuggestionHeading != "" && strings.Contains(heading, uc.cfg.Surface.SuggestionHeading) {
			uc.writeSuggestions(ctx, rep)
		}
		uc.tickCheckboxes(ctx, rep)

		next, btn, err := uc.transition(ctx)
		if err != nil {
			return res, &entity.FillError{Item: item.Label(), Op: "transition", Kind: entity.ErrElementNotFound, Err: err}
		}

		switch next {
		case transitionSubmit:
			rep.Reach(entity.CheckpointCheckboxesHandled)
			return uc.save(ctx, item, btn, res, rep)
		case transitionNext:
			if err := uc.interactor.ResilientClick(ctx, btn); err != nil {
				return res, &entity.FillError{Item: item.Label(), Op: "next", Kind: entity.ErrClickFailed, Err: err}
			}
			service.Sleep(ctx, uc.cfg.Timing.NextPause)
		default:
			rep.Log("No next or save button found on this page, moving on.", entity.LevelWarning)
			res.DeadEnd = true
			return res, nil
		}
	}
}

func (uc *UseCase) save(ctx context.Context, item entity.WorkItem, submit output.Element, res Result, rep Reporter) (Result, error) {
	if err := uc.interactor.ResilientClick(ctx, submit); err != nil {
		return res, &entity.FillError{Item: item.Label(), Op: "save", Kind: entity.ErrSaveFailed, Err: err}
	}
	res.Saved = true
	rep.Reach(entity.CheckpointSaved)
	rep.Log(fmt.Sprintf("Saved %q.", item.Label()), entity.LevelSuccess)

	uc.dismissDialog(ctx, rep)
	if uc.returnHome(ctx, rep) == nil {
		res.Returned = true
		rep.Reach(entity.CheckpointReturned)
	}
	return res, nil
}

func (uc *UseCase) transition(ctx context.Context) (transition, output.Element, error) {
	sel := uc.cfg.Surface.ButtonSelector
	submit, err := uc.driver.FindByText(ctx, sel, uc.cfg.Surface.SubmitLabel)
	if err != nil && !errors.Is(err, output.ErrNotFound) {
		return transitionDeadEnd, nil, err
	}
	if len(submit) > 0 {
		return transitionSubmit, submit[0], nil
	}

	next, err := uc.driver.FindByText(ctx, sel, uc.cfg.Surface.NextLabel)
	if err != nil && !errors.Is(err, output.ErrNotFound) {
		return transitionDeadEnd, nil, err
	}
	if len(next) > 0 {
		return transitionNext, next[0], nil
	}
	return transitionDeadEnd, nil, nil
}

// applyRatings clicks the configured star on every rating control of the page.
// Controls that cannot be clicked are logged and left alone.
func (uc *UseCase) applyRatings(ctx context.Context, category entity.Category, heading string, rep Reporter) int {
	controls, err := uc.driver.FindAll(ctx, uc.cfg.Surface.RatingSelector)
	if err != nil {
		uc.logger.Warn("Could not list rating controls", "error", err)
		return 0
	}
	if len(controls) == 0 {
		uc.logger.Debug("No rating controls", "heading", heading)
		return 0
	}

	filled := 0
	for i, control := range controls {
		value := uc.policy.ValueFor(category, heading, i)
		stars, err := control.FindAll(ctx, uc.cfg.Surface.StarSelector)
		if err != nil || len(stars) < value {
			uc.logger.Warn("Rating control has too few stars", "ordinal", i, "want", value, "stars", len(stars), "error", err)
			continue
		}
		if err := uc.interactor.ResilientClick(ctx, stars[value-1]); err != nil {
			rep.Log(fmt.Sprintf("Could not set rating %d: %s", i+1, service.UserMessage(err)), entity.LevelWarning)
			continue
		}
		filled++
		service.Sleep(ctx, uc.cfg.Timing.StarPause)
	}
	uc.logger.Debug("Ratings applied", "heading", heading, "filled", filled, "controls", len(controls))
	return filled
}

func (uc *UseCase) tickCheckboxes(ctx context.Context, rep Reporter) {
	boxes, err := uc.driver.FindAll(ctx, uc.cfg.Surface.CheckboxSelector)
	if err != nil {
		uc.logger.Warn("Could not list checkboxes", "error", err)
		return
	}
	for i, box := range boxes {
		checked, err := uc.driver.IsChecked(ctx, box)
		if err != nil {
			uc.logger.Debug("Could not read checkbox", "ordinal", i, "error", err)
			continue
		}
		if checked {
			continue
		}
		if err := uc.interactor.ResilientClick(ctx, box); err != nil {
			rep.Log("Could not tick statement checkbox: "+service.UserMessage(err), entity.LevelWarning)
			continue
		}
		rep.Log("Ticked statement checkbox.", entity.LevelInfo)
	}
}

func (uc *UseCase) writeSuggestions(ctx context.Context, rep Reporter) {
	text := uc.cfg.Settings.Suggestion()
	areas, err := uc.driver.FindAll(ctx, uc.cfg.Surface.TextAreaSelector)
	if err != nil {
		uc.logger.Warn("Could not list suggestion fields", "error", err)
		return
	}
	for i, area := range areas {
		usedScript, err := uc.interactor.ResilientType(ctx, area, text)
		if err != nil {
			rep.Log(fmt.Sprintf("Could not fill suggestion %d: %s", i+1, service.UserMessage(err)), entity.LevelWarning)
			continue
		}
		if usedScript {
			uc.logger.Debug("Suggestion set by script", "ordinal", i)
		}
	}
	if len(areas) > 0 {
		rep.Log(fmt.Sprintf("Filled %d suggestion field(s).", len(areas)), entity.LevelInfo)
	}
}

func (uc *UseCase) heading(ctx context.Context) string {
	els, err := uc.driver.FindAll(ctx, uc.cfg.Surface.HeadingSelector)
	if err != nil || len(els) == 0 {
		return ""
	}
	text, err := els[0].Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (uc *UseCase) waitForButton(ctx context.Context, label string) (output.Element, error) {
	if _, err := uc.driver.WaitUntilPresent(ctx, uc.cfg.Surface.ButtonSelector, uc.cfg.Timing.ControlWait); err != nil {
		return nil, err
	}
	els, err := uc.driver.FindByText(ctx, uc.cfg.Surface.ButtonSelector, label)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("button %q: %w", label, output.ErrNotFound)
	}
	return els[0], nil
}

// dismissDialog closes the confirmation dialog if one shows up after saving.
func (uc *UseCase) dismissDialog(ctx context.Context, rep Reporter) {
	if _, err := uc.driver.WaitUntilPresent(ctx, uc.cfg.Surface.DialogSelector, uc.cfg.Timing.DialogWait); err != nil {
		return
	}
	actions, err := uc.driver.FindAll(ctx, uc.cfg.Surface.DialogActionSelector)
	if err != nil || len(actions) == 0 {
		return
	}
	if err := uc.interactor.ResilientClick(ctx, actions[0]); err != nil {
		uc.logger.Warn("Could not dismiss dialog", "error", err)
		return
	}
	rep.Log("Closed confirmation dialog.", entity.LevelInfo)
}

// returnHome navigates back to the landing page. Only a failed navigation is
// an error; a slow landing page only costs a pause.
func (uc *UseCase) returnHome(ctx context.Context, rep Reporter) error {
	if err := uc.driver.Navigate(ctx, uc.cfg.Surface.LandingURL); err != nil {
		uc.logger.Warn("Return to landing page failed", "error", err)
		return err
	}
	if _, err := uc.driver.WaitUntilPresent(ctx, uc.cfg.Surface.LandingMarker, uc.cfg.Timing.ReturnWait); err != nil {
		uc.logger.Debug("Landing marker not visible after return", "error", err)
		service.Sleep(ctx, uc.cfg.Timing.RecoveryPause)
	}
	rep.Log("Back on the EPBM page.", entity.LevelInfo)
	return nil
}

func (uc *UseCase) capture(ctx context.Context, item entity.WorkItem, rep Reporter) {
	if uc.cfg.Diagnostics == nil {
		return
	}
	label := fmt.Sprintf("item-%02d", item.OrdinalIndex)
	path, err := uc.cfg.Diagnostics.Capture(ctx, uc.driver, uc.cfg.RunID, label)
	if err != nil {
		uc.logger.Debug("Diagnostics capture failed", "error", err)
		return
	}
	rep.Log("Saved diagnostics to "+path, entity.LevelInfo)
}
