package progress

import (
	"sync"

	"epbm-autofill/internal/domain/entity"
)

const ceilingBeforeFinish = 99

// Estimator turns checkpoint completions into a percentage that never goes
// backwards and stays below 100 until Finish.
type Estimator struct {
	mu        sync.Mutex
	completed int
	total     int
	last      int
	finished  bool
}

func NewEstimator(items int) *Estimator {
	if items < 0 {
		items = 0
	}
	return &Estimator{total: items * entity.CheckpointsPerItem}
}

func (e *Estimator) Advance() int {
	return e.AdvanceBy(1)
}

func (e *Estimator) AdvanceBy(steps int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if steps > 0 && !e.finished {
		e.completed += steps
		if e.completed > e.total {
			e.completed = e.total
		}
	}
	return e.percentLocked()
}

func (e *Estimator) Percent() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.percentLocked()
}

func (e *Estimator) Finish() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = true
	e.last = 100
	return 100
}

func (e *Estimator) State() (completed, total int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed, e.total
}

func (e *Estimator) percentLocked() int {
	if e.finished {
		return 100
	}
	p := 0
	if e.total > 0 {
		p = 100 * e.completed / e.total
	}
	if p > ceilingBeforeFinish {
		p = ceilingBeforeFinish
	}
	if p < e.last {
		p = e.last
	}
	e.last = p
	return p
}

// ItemTracker counts each checkpoint of one item at most once.
type ItemTracker struct {
	est    *Estimator
	seen   [entity.CheckpointsPerItem]bool
	report func(percent int)
}

func (e *Estimator) ForItem(report func(percent int)) *ItemTracker {
	if report == nil {
		report = func(int) {}
	}
	return &ItemTracker{est: e, report: report}
}

func (t *ItemTracker) Reach(cp entity.Checkpoint) {
	if cp < 0 || int(cp) >= len(t.seen) || t.seen[cp] {
		return
	}
	t.seen[cp] = true
	t.report(t.est.Advance())
}

// Settle credits any checkpoints the item never reached so later items start
// from a proportional baseline.
func (t *ItemTracker) Settle() {
	missing := 0
	for i := range t.seen {
		if !t.seen[i] {
			t.seen[i] = true
			missing++
		}
	}
	if missing > 0 {
		t.report(t.est.AdvanceBy(missing))
	}
}
