package discovery

import (
	"context"
	"fmt"
	"strings"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/domain/entity"
)

const untitled = "Untitled"

// UseCase enumerates questionnaire cards on an authenticated landing page.
type UseCase struct {
	driver    output.DriverPort
	surface   entity.Surface
	presenter output.PresenterPort
	logger    output.LoggerPort
}

func New(driver output.DriverPort, surface entity.Surface, presenter output.PresenterPort, logger output.LoggerPort) *UseCase {
	return &UseCase{
		driver:    driver,
		surface:   surface,
		presenter: presenter,
		logger:    logger,
	}
}

// Discover returns one WorkItem per card in page order. An empty slice is not an error.
func (uc *UseCase) Discover(ctx context.Context) ([]entity.WorkItem, error) {
	uc.presenter.OnLog("Collecting questionnaire list...", entity.LevelInfo)

	cards, err := uc.driver.FindAll(ctx, uc.surface.CardSelector)
	if err != nil {
		return nil, &entity.DiscoveryError{Kind: entity.ErrSurfaceUnavailable, Err: err}
	}

	items := make([]entity.WorkItem, 0, len(cards))
	for i, card := range cards {
		item := uc.parseCard(ctx, i, card)
		uc.logger.Debug("Discovered card",
			"index", i,
			"title", item.Title,
			"category", item.Category,
			"completed", item.Completed,
		)
		items = append(items, item)
	}

	done := entity.CountCompleted(items)
	uc.logger.Info("Discovery finished", "items", len(items), "completed", done)
	uc.presenter.OnLog(
		fmt.Sprintf("Found %d questionnaires (%d completed, %d pending).", len(items), done, len(items)-done),
		entity.LevelSuccess,
	)
	return items, nil
}

// parseCard never drops a card: lookups that fail fall back to defaults so
// ordinals stay aligned with the page.
func (uc *UseCase) parseCard(ctx context.Context, index int, card output.Element) entity.WorkItem {
	item := entity.WorkItem{Title: untitled, OrdinalIndex: index}

	if text := uc.firstText(ctx, card, uc.surface.CardTitleSelector); text != "" {
		item.Title = text
	}
	item.Description = uc.firstText(ctx, card, uc.surface.CardDescSelector)

	if href, ok, err := card.Attribute(ctx, "href"); err != nil {
		uc.logger.Debug("Could not read card reference", "index", index, "error", err)
	} else if ok {
		item.TargetRef = strings.TrimSpace(href)
	}

	if marks, err := card.FindAll(ctx, uc.surface.CompletedMarker); err == nil {
		item.Completed = len(marks) > 0
	}

	item.Category = Classify(uc.surface, item.Title, item.TargetRef)
	return item
}

func (uc *UseCase) firstText(ctx context.Context, card output.Element, selector string) string {
	els, err := card.FindAll(ctx, selector)
	if err != nil || len(els) == 0 {
		return ""
	}
	text, err := els[0].Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Classify marks a card as the facilities questionnaire when its title or
// reference carries one of the surface's facilities markers.
func Classify(surface entity.Surface, title, ref string) entity.Category {
	t := strings.ToLower(title)
	for _, phrase := range surface.FacilitiesPhrases {
		if phrase != "" && strings.Contains(t, strings.ToLower(phrase)) {
			return entity.CategoryFacilities
		}
	}
	r := strings.ToLower(ref)
	for _, token := range surface.FacilitiesRefTokens {
		if token != "" && strings.Contains(r, strings.ToLower(token)) {
			return entity.CategoryFacilities
		}
	}
	return entity.CategoryStandard
}
