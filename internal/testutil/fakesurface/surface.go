// Package fakesurface is a scripted, in-memory stand-in for the EPBM portal.
// It implements output.DriverPort against the default entity.Surface selectors
// and records every call so tests can assert on what the automation did.
package fakesurface

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/domain/entity"
)

var _ output.DriverPort = (*Surface)(nil)

var (
	ErrBroken        = errors.New("fake driver: broken")
	ErrStale         = errors.New("fake driver: stale element")
	ErrNotInteract   = errors.New("fake driver: element not interactable")
	ErrTypingBlocked = errors.New("fake driver: typing blocked")
)

const LoginURL = "https://portal.test/Account/Login?ReturnUrl=%2FAkademik%2FEPBM%2FDetail"

type Page struct {
	Heading    string
	Ratings    int
	Stars      int
	TextAreas  int
	Checkboxes int
	Checked    int
	Submit     bool
	Next       bool
}

type Card struct {
	Title       string
	Description string
	Href        string
	Completed   bool
	Pages       []Page
}

type PageResult struct {
	Heading string
	Stars   []int
	Texts   []string
	Checked []bool
}

type Attempt struct {
	Href  string
	Pages []PageResult
	Saved bool
}

type Surface struct {
	mu  sync.Mutex
	Sel entity.Surface

	Users        map[string]string
	RequireLogin bool
	SilentReject bool
	NoRedirect   bool
	Cards        []Card
	ShowDialog   bool
	NoLanding    bool

	FailEverything  bool
	FailNativeClick bool
	FailTyping      bool
	FailNavigate    int

	PageLoadTimeout time.Duration
	Closed          bool
	Journal         []string
	Attempts        []*Attempt

	url        string
	location   string
	loggedIn   bool
	rejected   bool
	dialogOpen bool
	epoch      int
	cardIdx    int
	pageIdx    int
	attempt    *Attempt
	username   string
	password   string
}

func New(sel entity.Surface) *Surface {
	return &Surface{
		Sel:      sel,
		Users:    map[string]string{},
		location: "blank",
		url:      "about:blank",
	}
}

// StandardPages returns the seven-page course questionnaire.
func StandardPages() []Page {
	return []Page{
		{Heading: "1. Pertanyaan terkait mata kuliah", Ratings: 5, Stars: 4, Next: true},
		{Heading: "2. Dosen memberikan kuliah dengan metode ceramah", Ratings: 2, Stars: 4, Next: true},
		{Heading: "3. Dosen menyampaikan kuliah dengan menjadi mentor", Ratings: 2, Stars: 4, Next: true},
		{Heading: "4. Dosen memberikan contoh/ilustrasi dalam kehidupan nyata", Ratings: 2, Stars: 4, Next: true},
		{Heading: "5. Dosen menfaatkan ketersediaan teknologi", Ratings: 2, Stars: 4, Next: true},
		{Heading: "6. Dosen memberikan umpan balik", Ratings: 2, Stars: 4, Next: true},
		{Heading: "7. Berikan saran untuk masing-masing dosen pengajar", TextAreas: 2, Checkboxes: 1, Submit: true},
	}
}

func FacilitiesPages() []Page {
	return []Page{{Heading: "Sarana dan Prasarana", Ratings: 3, Stars: 4, Checkboxes: 1, Submit: true}}
}

func (s *Surface) SetCards(cards []Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cards = cards
	s.epoch++
}

func (s *Surface) Calls(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, j := range s.Journal {
		if strings.HasPrefix(j, prefix) {
			out = append(out, j)
		}
	}
	return out
}

func (s *Surface) Snapshot() (journal []string, attempts []Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	journal = append(journal, s.Journal...)
	for _, a := range s.Attempts {
		attempts = append(attempts, *a)
	}
	return journal, attempts
}

func (s *Surface) record(format string, args ...any) {
	s.Journal = append(s.Journal, fmt.Sprintf(format, args...))
}

func (s *Surface) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("navigate %s", url)
	if s.FailEverything {
		return ErrBroken
	}
	if s.FailNavigate > 0 {
		s.FailNavigate--
		return fmt.Errorf("fake driver: navigation to %s failed", url)
	}

	s.epoch++
	s.dialogOpen = false
	s.rejected = false
	switch {
	case url == s.Sel.LandingURL && s.RequireLogin && !s.loggedIn:
		s.location, s.url = "login", LoginURL
	case url == s.Sel.LandingURL:
		s.location, s.url = "landing", url
	default:
		for i, c := range s.Cards {
			if c.Href == url {
				s.openCard(i)
				return nil
			}
		}
		return fmt.Errorf("fake driver: unknown url %s", url)
	}
	return nil
}

func (s *Surface) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailEverything {
		return "", ErrBroken
	}
	return s.url, nil
}

func (s *Surface) SetPageLoadTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PageLoadTimeout = d
}

func (s *Surface) FindOne(ctx context.Context, selector string) (output.Element, error) {
	els, err := s.FindAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, output.ErrNotFound)
	}
	return els[0], nil
}

func (s *Surface) FindAll(ctx context.Context, selector string) ([]output.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailEverything {
		return nil, ErrBroken
	}
	return s.query(selector), nil
}

func (s *Surface) FindByText(ctx context.Context, selector, text string) ([]output.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailEverything {
		return nil, ErrBroken
	}
	var out []output.Element
	for _, el := range s.query(selector) {
		if strings.Contains(s.textOf(el.(*element)), text) {
			out = append(out, el)
		}
	}
	return out, nil
}

func (s *Surface) WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) (output.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("wait %s", selector)
	if s.FailEverything {
		return nil, ErrBroken
	}
	els := s.query(selector)
	if len(els) == 0 {
		return nil, fmt.Errorf("%s after %s: %w", selector, timeout, output.ErrTimeout)
	}
	return els[0], nil
}

func (s *Surface) Click(ctx context.Context, el output.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.usable(el)
	if err != nil {
		return err
	}
	if s.FailNativeClick {
		return ErrNotInteract
	}
	s.record("click %s", e.describe())
	s.activate(e)
	return nil
}

func (s *Surface) ScriptClick(ctx context.Context, el output.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.usable(el)
	if err != nil {
		return err
	}
	s.record("script-click %s", e.describe())
	s.activate(e)
	return nil
}

func (s *Surface) TypeText(ctx context.Context, el output.Element, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.usable(el)
	if err != nil {
		return err
	}
	if s.FailTyping {
		return ErrTypingBlocked
	}
	s.record("type %s", e.describe())
	s.setValue(e, text)
	return nil
}

func (s *Surface) ScriptSetValue(ctx context.Context, el output.Element, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.usable(el)
	if err != nil {
		return err
	}
	s.record("script-value %s", e.describe())
	s.setValue(e, text)
	return nil
}

func (s *Surface) IsChecked(ctx context.Context, el output.Element) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.usable(el)
	if err != nil {
		return false, err
	}
	if e.kind != kindCheckbox || s.attempt == nil {
		return false, nil
	}
	return s.attempt.Pages[s.pageIdx].Checked[e.i], nil
}

func (s *Surface) RunScript(ctx context.Context, js string, args ...any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("script %s", js)
	if s.FailEverything {
		return "", ErrBroken
	}
	return "", nil
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("close")
	s.Closed = true
	return nil
}

func (s *Surface) usable(el output.Element) (*element, error) {
	if s.FailEverything {
		return nil, ErrBroken
	}
	e, ok := el.(*element)
	if !ok || e == nil {
		return nil, fmt.Errorf("fake driver: foreign element %T", el)
	}
	if e.epoch != s.epoch {
		return nil, ErrStale
	}
	return e, nil
}

func (s *Surface) openCard(i int) {
	s.epoch++
	s.location = "form"
	s.cardIdx, s.pageIdx = i, 0
	s.url = s.Cards[i].Href
	a := &Attempt{Href: s.Cards[i].Href}
	for _, p := range s.Cards[i].Pages {
		pr := PageResult{
			Heading: p.Heading,
			Stars:   make([]int, p.Ratings),
			Texts:   make([]string, p.TextAreas),
			Checked: make([]bool, p.Checkboxes),
		}
		for k := 0; k < p.Checked && k < p.Checkboxes; k++ {
			pr.Checked[k] = true
		}
		a.Pages = append(a.Pages, pr)
	}
	s.attempt = a
	s.Attempts = append(s.Attempts, a)
}

func (s *Surface) activate(e *element) {
	switch e.kind {
	case kindLoginSubmit:
		if pw, ok := s.Users[s.username]; ok && pw == s.password && s.username != "" {
			if s.NoRedirect {
				return
			}
			s.loggedIn = true
			s.location, s.url = "landing", s.Sel.LandingURL
		} else {
			s.rejected = !s.SilentReject
		}
		s.epoch++
	case kindCard:
		s.openCard(e.i)
	case kindStar:
		s.attempt.Pages[s.pageIdx].Stars[e.i] = e.j + 1
	case kindCheckbox:
		c := s.attempt.Pages[s.pageIdx].Checked
		c[e.i] = !c[e.i]
	case kindNext:
		if s.pageIdx+1 < len(s.attempt.Pages) {
			s.pageIdx++
		}
		s.epoch++
	case kindSubmit:
		s.attempt.Saved = true
		s.Cards[s.cardIdx].Completed = true
		s.dialogOpen = s.ShowDialog
	case kindDialogAction:
		s.dialogOpen = false
	}
}

func (s *Surface) setValue(e *element, text string) {
	switch e.kind {
	case kindUsername:
		s.username = text
	case kindPassword:
		s.password = text
	case kindTextArea:
		s.attempt.Pages[s.pageIdx].Texts[e.i] = text
	}
}

func (s *Surface) currentPage() (Page, bool) {
	if s.location != "form" {
		return Page{}, false
	}
	pages := s.Cards[s.cardIdx].Pages
	if s.pageIdx >= len(pages) {
		return Page{}, false
	}
	return pages[s.pageIdx], true
}

func (s *Surface) query(selector string) []output.Element {
	var out []output.Element
	add := func(kind elementKind, i, j int) {
		out = append(out, &element{s: s, kind: kind, i: i, j: j, epoch: s.epoch})
	}

	if s.dialogOpen {
		switch selector {
		case s.Sel.DialogSelector:
			add(kindDialog, 0, 0)
		case s.Sel.DialogActionSelector:
			add(kindDialogAction, 0, 0)
		}
		if len(out) > 0 {
			return out
		}
	}

	switch s.location {
	case "login":
		switch selector {
		case s.Sel.UsernameSelector:
			add(kindUsername, 0, 0)
		case s.Sel.PasswordSelector:
			add(kindPassword, 0, 0)
		case s.Sel.LoginSubmitSelector:
			add(kindLoginSubmit, 0, 0)
		case s.Sel.AlertSelector:
			if s.rejected {
				add(kindAlert, 0, 0)
			}
		}
	case "landing":
		if s.NoLanding {
			return nil
		}
		switch selector {
		case s.Sel.CardSelector:
			for i := range s.Cards {
				add(kindCard, i, 0)
			}
		case s.Sel.LandingMarker:
			add(kindMarker, 0, 0)
		}
	case "form":
		p, ok := s.currentPage()
		if !ok {
			return nil
		}
		switch selector {
		case s.Sel.HeadingSelector:
			if p.Heading != "" {
				add(kindHeading, 0, 0)
			}
		case s.Sel.RatingSelector:
			for i := 0; i < p.Ratings; i++ {
				add(kindRating, i, 0)
			}
		case s.Sel.TextAreaSelector:
			for i := 0; i < p.TextAreas; i++ {
				add(kindTextArea, i, 0)
			}
		case s.Sel.CheckboxSelector:
			for i := 0; i < p.Checkboxes; i++ {
				add(kindCheckbox, i, 0)
			}
		case s.Sel.ButtonSelector:
			if p.Next {
				add(kindNext, 0, 0)
			}
			if p.Submit {
				add(kindSubmit, 0, 0)
			}
		}
	}
	return out
}

func (s *Surface) textOf(e *element) string {
	switch e.kind {
	case kindAlert:
		return "Login gagal. Username atau password Anda salah."
	case kindHeading:
		p, _ := s.currentPage()
		return p.Heading
	case kindNext:
		return s.Sel.NextLabel
	case kindSubmit:
		return s.Sel.SubmitLabel
	case kindCardTitle:
		return s.Cards[e.i].Title
	case kindCardDesc:
		return s.Cards[e.i].Description
	case kindDialogAction:
		return "OK"
	}
	return ""
}
