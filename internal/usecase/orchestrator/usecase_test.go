package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/domain/entity"
	"epbm-autofill/internal/infrastructure/logger"
	"epbm-autofill/internal/testutil/fakesurface"
	"epbm-autofill/internal/testutil/spy"
)

var student = entity.Credentials{Username: "G6401211001", Password: "secret"}

func threeCards() []fakesurface.Card {
	return []fakesurface.Card{
		{Title: "KOM201", Description: "Basis Data", Href: "/epbm/kom201", Pages: fakesurface.StandardPages()},
		{Title: "Sarana dan Prasarana", Href: "/epbm/sarpras", Pages: fakesurface.FacilitiesPages()},
		{Title: "KOM202", Description: "Struktur Data", Href: "/epbm/kom202", Pages: fakesurface.StandardPages()},
	}
}

func newPortal(cards []fakesurface.Card) *fakesurface.Surface {
	s := fakesurface.New(entity.DefaultSurface())
	s.RequireLogin = true
	s.Users[student.Username] = student.Password
	s.Cards = cards
	return s
}

type factory struct {
	surface *fakesurface.Surface
	// driver, when set, is handed out instead of surface.
	driver  output.DriverPort
	opts    []output.DriverOptions
	err     error
	gate    chan struct{}
}

func (f *factory) New(ctx context.Context, opts output.DriverOptions) (output.DriverPort, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	if f.driver != nil {
		return f.driver, nil
	}
	return f.surface, nil
}

func newUseCase(f *factory, p output.PresenterPort) *UseCase {
	return New(f.New, p, logger.NewNopLogger(), Config{Surface: f.surface.Sel})
}

func discover(t *testing.T, uc *UseCase) []entity.WorkItem {
	t.Helper()
	out := uc.Discover(context.Background(), student)
	require.True(t, out.Success, out.Message)
	return out.Items
}

func assertProgress(t *testing.T, seq []int) {
	t.Helper()
	require.NotEmpty(t, seq)
	for i, p := range seq {
		if i > 0 {
			assert.GreaterOrEqual(t, p, seq[i-1], "progress went backwards at %d: %v", i, seq)
		}
		if i < len(seq)-1 {
			assert.LessOrEqual(t, p, 99)
		}
	}
	assert.Equal(t, 100, seq[len(seq)-1])
}

func TestRun_FillsEverySelectedItem(t *testing.T) {
	s := newPortal(threeCards())
	f := &factory{surface: s}
	p := &spy.Presenter{}
	uc := newUseCase(f, p)

	items := discover(t, uc)
	require.Len(t, items, 3)
	selection := entity.RunSelection{items[2], items[0], items[1]}

	out := uc.Run(context.Background(), entity.NewRunContext(student, entity.DefaultRatingSettings(), selection, true))
	require.True(t, out.Success, out.Message)
	assert.Contains(t, out.Message, "saved 3 of 3")

	_, attempts := s.Snapshot()
	require.Len(t, attempts, 3)
	assert.Equal(t, "/epbm/kom202", attempts[0].Href)
	assert.Equal(t, "/epbm/kom201", attempts[1].Href)
	assert.Equal(t, "/epbm/sarpras", attempts[2].Href)
	for _, a := range attempts {
		assert.True(t, a.Saved)
	}

	assertProgress(t, p.Progress())
	assert.True(t, s.Closed)
	outcomes := p.Outcomes()
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[1].Success)
}

// strandedPortal cannot navigate anywhere once a questionnaire is saved.
type strandedPortal struct {
	*fakesurface.Surface
}

func (p strandedPortal) Navigate(ctx context.Context, url string) error {
	_, attempts := p.Snapshot()
	if n := len(attempts); n > 0 && attempts[n-1].Saved {
		return errors.New("landing page unreachable")
	}
	return p.Surface.Navigate(ctx, url)
}

func TestRun_StopsWhenLandingPageIsLost(t *testing.T) {
	s := newPortal(threeCards())
	p := &spy.Presenter{}
	uc := newUseCase(&factory{surface: s, driver: strandedPortal{s}}, p)

	selection := entity.RunSelection{
		{Title: "KOM201", TargetRef: "/epbm/kom201", OrdinalIndex: 0},
		{Title: "KOM202", TargetRef: "/epbm/kom202", OrdinalIndex: 2},
	}
	out := uc.Run(context.Background(), entity.NewRunContext(student, entity.DefaultRatingSettings(), selection, true))

	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "saved 1 of 2")
	assert.NotContains(t, out.Message, "failed")
	_, attempts := s.Snapshot()
	require.Len(t, attempts, 1)
	assert.Equal(t, "/epbm/kom201", attempts[0].Href)
	assert.True(t, p.Contains("1 questionnaire(s) left untouched"))
	assert.NotEmpty(t, p.LinesAt(entity.LevelWarning))
	assert.True(t, s.Closed)
}

func TestRun_InvalidCredentialsAbortBeforeAnyItem(t *testing.T) {
	s := newPortal(threeCards())
	p := &spy.Presenter{}
	uc := newUseCase(&factory{surface: s}, p)

	selection := entity.RunSelection{{Title: "KOM201", TargetRef: "/epbm/kom201"}}
	out := uc.Run(context.Background(), entity.NewRunContext(
		entity.Credentials{Username: student.Username, Password: "nope"}, entity.DefaultRatingSettings(), selection, true))

	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "incorrect")
	assert.Empty(t, s.Calls("click card"))
	assert.Empty(t, s.Calls("wait "+s.Sel.CardSelector))
	_, attempts := s.Snapshot()
	assert.Empty(t, attempts)
	assert.True(t, s.Closed)
	assert.Empty(t, p.Progress())
}

func TestRun_SkipsItemsThatDisappeared(t *testing.T) {
	s := newPortal(threeCards())
	p := &spy.Presenter{}
	uc := newUseCase(&factory{surface: s}, p)

	items := discover(t, uc)
	require.Len(t, items, 3)
	s.SetCards(threeCards()[:2])

	out := uc.Run(context.Background(), entity.NewRunContext(student, entity.DefaultRatingSettings(), entity.RunSelection(items), true))
	require.True(t, out.Success)
	assert.Contains(t, out.Message, "1 skipped")

	_, attempts := s.Snapshot()
	assert.Len(t, attempts, 2)
	assert.True(t, p.Contains("no longer listed"))
	assertProgress(t, p.Progress())
}

func TestRun_ItemFailureIsContained(t *testing.T) {
	cards := threeCards()
	// Facilities page without a save button.
	cards[1].Pages = []fakesurface.Page{{Heading: "Sarana dan Prasarana", Ratings: 3, Stars: 4}}
	s := newPortal(cards)
	p := &spy.Presenter{}
	uc := newUseCase(&factory{surface: s}, p)

	items := discover(t, uc)
	require.Equal(t, entity.CategoryFacilities, items[1].Category)

	out := uc.Run(context.Background(), entity.NewRunContext(student, entity.DefaultRatingSettings(), entity.RunSelection(items), true))
	require.True(t, out.Success)
	assert.Contains(t, out.Message, "saved 2 of 3")
	assert.Contains(t, out.Message, "1 failed")

	_, attempts := s.Snapshot()
	require.Len(t, attempts, 3)
	assert.False(t, attempts[1].Saved)
	assert.Equal(t, "/epbm/kom202", attempts[2].Href)
	assert.True(t, attempts[2].Saved)
	assert.NotEmpty(t, p.LinesAt(entity.LevelError))
}

type cancellingPresenter struct {
	spy.Presenter
	cancel context.CancelFunc
}

func (c *cancellingPresenter) OnLog(line string, level entity.LogLevel) {
	c.Presenter.OnLog(line, level)
	if level == entity.LevelSuccess && strings.HasPrefix(line, "Saved") {
		c.cancel()
	}
}

func TestRun_CancellationBetweenItems(t *testing.T) {
	s := newPortal(threeCards())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &cancellingPresenter{cancel: cancel}
	f := &factory{surface: s}

	items := discover(t, newUseCase(f, &spy.Presenter{}))
	uc := newUseCase(f, p)

	out := uc.Run(ctx, entity.NewRunContext(student, entity.DefaultRatingSettings(), entity.RunSelection(items), true))
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "cancelled")

	_, attempts := s.Snapshot()
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Saved)
	assert.True(t, s.Closed)
	assertProgress(t, p.Progress())
}

func TestStart_SingleFlight(t *testing.T) {
	s := newPortal(threeCards())
	f := &factory{surface: s, gate: make(chan struct{})}
	uc := newUseCase(f, &spy.Presenter{})
	rc := entity.NewRunContext(student, entity.DefaultRatingSettings(), nil, true)

	ch, err := uc.Start(context.Background(), rc)
	require.NoError(t, err)
	assert.True(t, uc.Busy())

	_, err = uc.Start(context.Background(), rc)
	assert.ErrorIs(t, err, entity.ErrRunInProgress)
	assert.False(t, uc.Run(context.Background(), rc).Success)
	assert.False(t, uc.Discover(context.Background(), student).Success)

	close(f.gate)
	out := <-ch
	assert.True(t, out.Success, out.Message)
	_, open := <-ch
	assert.False(t, open)
	assert.False(t, uc.Busy())
	assert.Len(t, f.opts, 1)
}

func TestRun_BrowserStartFailure(t *testing.T) {
	s := newPortal(threeCards())
	p := &spy.Presenter{}
	uc := newUseCase(&factory{surface: s, err: errors.New("chromium not installed")}, p)

	out := uc.Run(context.Background(), entity.NewRunContext(student, entity.DefaultRatingSettings(), nil, false))
	assert.False(t, out.Success)
	assert.False(t, s.Closed)
	assert.NotEmpty(t, p.LinesAt(entity.LevelError))
}

func TestDiscover_BoundsDriverActionsByControlWait(t *testing.T) {
	s := newPortal(threeCards())
	f := &factory{surface: s}
	uc := New(f.New, &spy.Presenter{}, logger.NewNopLogger(), Config{
		Surface: s.Sel,
		Timing:  entity.Timing{ControlWait: 2 * time.Second},
	})

	out := uc.Discover(context.Background(), student)

	require.True(t, out.Success, out.Message)
	require.Len(t, f.opts, 1)
	assert.Equal(t, 2*time.Second, f.opts[0].ActionTimeout)
}

func TestDiscover_Outcomes(t *testing.T) {
	t.Run("always headless and emits items", func(t *testing.T) {
		s := newPortal(threeCards())
		f := &factory{surface: s}
		p := &spy.Presenter{}
		out := newUseCase(f, p).Discover(context.Background(), student)

		require.True(t, out.Success)
		assert.Len(t, out.Items, 3)
		assert.Equal(t, []output.DriverOptions{{Headless: true}}, f.opts)
		require.Len(t, p.Discovered(), 1)
		assert.Equal(t, out.Items, p.Discovered()[0])
		assert.True(t, s.Closed)
	})

	t.Run("empty list is a failure", func(t *testing.T) {
		s := newPortal(nil)
		s.Sel.LandingMarker = "main.epbm"
		p := &spy.Presenter{}
		out := newUseCase(&factory{surface: s}, p).Discover(context.Background(), student)

		assert.False(t, out.Success)
		assert.Empty(t, out.Items)
		assert.Empty(t, p.Discovered())
	})

	t.Run("bad credentials", func(t *testing.T) {
		s := newPortal(threeCards())
		out := newUseCase(&factory{surface: s}, &spy.Presenter{}).Discover(context.Background(), entity.Credentials{Username: "x", Password: "y"})
		assert.False(t, out.Success)
		assert.Contains(t, out.Message, "incorrect")
		assert.True(t, s.Closed)
	})

	t.Run("repeatable", func(t *testing.T) {
		s := newPortal(threeCards())
		uc := newUseCase(&factory{surface: s}, &spy.Presenter{})
		assert.Equal(t, discover(t, uc), discover(t, uc))
	})
}
