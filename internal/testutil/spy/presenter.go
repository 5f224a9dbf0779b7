// Package spy records presenter events for assertions.
package spy

import (
	"strings"
	"sync"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/domain/entity"
)

var _ output.PresenterPort = (*Presenter)(nil)

type Line struct {
	Text  string
	Level entity.LogLevel
}

type Outcome struct {
	Success bool
	Message string
}

type Presenter struct {
	mu         sync.Mutex
	lines      []Line
	progress   []int
	outcomes   []Outcome
	discovered [][]entity.WorkItem
}

func (p *Presenter) OnLog(line string, level entity.LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, Line{Text: line, Level: level})
}

func (p *Presenter) OnProgress(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = append(p.progress, percent)
}

func (p *Presenter) OnRunOutcome(success bool, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, Outcome{Success: success, Message: message})
}

func (p *Presenter) OnItemsDiscovered(items []entity.WorkItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discovered = append(p.discovered, items)
}

func (p *Presenter) Lines() []Line {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Line(nil), p.lines...)
}

// LinesAt returns the text of every line logged at level.
func (p *Presenter) LinesAt(level entity.LogLevel) []string {
	var out []string
	for _, l := range p.Lines() {
		if l.Level == level {
			out = append(out, l.Text)
		}
	}
	return out
}

func (p *Presenter) Contains(substr string) bool {
	for _, l := range p.Lines() {
		if strings.Contains(l.Text, substr) {
			return true
		}
	}
	return false
}

func (p *Presenter) Progress() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.progress...)
}

func (p *Presenter) Outcomes() []Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Outcome(nil), p.outcomes...)
}

func (p *Presenter) Discovered() [][]entity.WorkItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]entity.WorkItem(nil), p.discovered...)
}
