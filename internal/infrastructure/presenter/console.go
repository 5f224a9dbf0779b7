package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/domain/entity"
)

var _ output.PresenterPort = (*Console)(nil)

const barWidth = 40

var (
	timeColor    = color.New(color.Faint)
	infoColor    = color.New(color.FgWhite)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)

	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	tagStyle     = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Console renders run events to a terminal: timestamped log lines, a progress
// bar with a status label, the discovered item list and a final summary box.
type Console struct {
	out io.Writer
	now func() time.Time

	mu          sync.Mutex
	bar         progress.Model
	lastPercent int
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:         out,
		now:         time.Now,
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		lastPercent: -1,
	}
}

func (c *Console) OnLog(line string, level entity.LogLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	timeColor.Fprintf(c.out, "[%s] ", c.now().Format("15:04:05"))
	switch level {
	case entity.LevelSuccess:
		successColor.Fprintf(c.out, "✓ %s\n", line)
	case entity.LevelWarning:
		warningColor.Fprintf(c.out, "! %s\n", line)
	case entity.LevelError:
		errorColor.Fprintf(c.out, "✗ %s\n", line)
	default:
		infoColor.Fprintf(c.out, "%s\n", line)
	}
}

// OnProgress prints the bar only when the percentage changes.
func (c *Console) OnProgress(percent int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if percent == c.lastPercent {
		return
	}
	c.lastPercent = percent
	fmt.Fprintf(c.out, "%s %3d%%  %s\n", c.bar.ViewAs(float64(percent)/100), percent, StatusLabel(percent))
}

func (c *Console) OnRunOutcome(success bool, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	style := boxStyle.BorderForeground(lipgloss.Color("42"))
	title := "Done"
	if !success {
		style = boxStyle.BorderForeground(lipgloss.Color("196"))
		title = "Failed"
	}
	fmt.Fprintln(c.out, style.Render(headerStyle.Render(title)+"\n"+message))
}

func (c *Console) OnItemsDiscovered(items []entity.WorkItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, RenderItems(items))
}

// RenderItems formats the numbered item list followed by the counters line.
func RenderItems(items []entity.WorkItem) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Questionnaires") + "\n")
	for i, it := range items {
		status := pendingStyle.Render("pending")
		if it.Completed {
			status = doneStyle.Render("done   ")
		}
		tag := ""
		if it.Category == entity.CategoryFacilities {
			tag = " " + tagStyle.Render("[facilities]")
		}
		fmt.Fprintf(&sb, "%3d. %s  %s%s\n", i+1, status, it.Label(), tag)
	}
	done := entity.CountCompleted(items)
	fmt.Fprintf(&sb, "Found %d · completed %d · pending %d\n", len(items), done, len(items)-done)
	return sb.String()
}

// StatusLabel describes roughly where a fill run is, by percentage.
func StatusLabel(percent int) string {
	switch {
	case percent < 10:
		return "Starting..."
	case percent < 30:
		return "Filling course evaluations..."
	case percent < 60:
		return "Filling lecturer evaluations..."
	case percent < 90:
		return "Finishing up..."
	case percent < 100:
		return "Almost done..."
	default:
		return "Done!"
	}
}
