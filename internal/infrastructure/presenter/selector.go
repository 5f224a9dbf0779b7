package presenter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"epbm-autofill/internal/domain/entity"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	disabledStyle = lipgloss.NewStyle().Faint(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// SelectorModel is a checklist of discovered items. Completed items are shown
// but cannot be selected; incomplete ones start selected.
type SelectorModel struct {
	items     []entity.WorkItem
	chosen    []bool
	cursor    int
	confirmed bool
	cancelled bool
}

func NewSelector(items []entity.WorkItem) SelectorModel {
	m := SelectorModel{
		items:  append([]entity.WorkItem(nil), items...),
		chosen: make([]bool, len(items)),
	}
	m.setAll(true)
	return m
}

func (m SelectorModel) Init() tea.Cmd {
	return nil
}

func (m SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ", "space", "x":
		if m.cursor < len(m.items) && !m.items[m.cursor].Completed {
			m.chosen = append([]bool(nil), m.chosen...)
			m.chosen[m.cursor] = !m.chosen[m.cursor]
		}
	case "a":
		m.setAll(true)
	case "n":
		m.setAll(false)
	case "enter":
		m.confirmed = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *SelectorModel) setAll(v bool) {
	m.chosen = make([]bool, len(m.items))
	for i, it := range m.items {
		m.chosen[i] = v && !it.Completed
	}
}

func (m SelectorModel) View() string {
	if m.confirmed || m.cancelled {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Select questionnaires to fill") + "\n\n")
	for i, it := range m.items {
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if m.chosen[i] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %d. %s", box, i+1, it.Label())
		if it.Completed {
			line = disabledStyle.Render(fmt.Sprintf("[✓] %d. %s (completed)", i+1, it.Label()))
		}
		sb.WriteString(pointer + line + "\n")
	}
	fmt.Fprintf(&sb, "\n%d selected\n", len(m.Selection()))
	sb.WriteString(helpStyle.Render("space toggle · a all · n none · enter confirm · q cancel") + "\n")
	return sb.String()
}

// Selection returns the chosen items in list order.
func (m SelectorModel) Selection() entity.RunSelection {
	out := entity.RunSelection{}
	for i, it := range m.items {
		if m.chosen[i] {
			out = append(out, it)
		}
	}
	return out
}

func (m SelectorModel) Cancelled() bool {
	return m.cancelled
}

// RunSelector shows the checklist on the terminal and returns what was picked.
func RunSelector(ctx context.Context, items []entity.WorkItem, in io.Reader, out io.Writer) (entity.RunSelection, error) {
	program := tea.NewProgram(NewSelector(items), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("selector: %w", err)
	}
	m, ok := final.(SelectorModel)
	if !ok || m.Cancelled() {
		return nil, ErrSelectionCancelled
	}
	return m.Selection(), nil
}
