package service

import (
	"sync"

	"epbm-autofill/internal/application/port/output"
	"epbm-autofill/internal/domain/entity"
)

var _ output.PresenterPort = (*EventBus)(nil)

const eventBufferSize = 256

type event func(p output.PresenterPort)

// EventBus forwards presenter events from a worker to the presenter on a
// dedicated goroutine. Emitting never waits on the presenter unless the buffer
// is full; ordering is FIFO.
type EventBus struct {
	target output.PresenterPort
	events chan event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewEventBus(target output.PresenterPort) *EventBus {
	b := &EventBus{
		target: target,
		events: make(chan event, eventBufferSize),
		done:   make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *EventBus) loop() {
	defer close(b.done)
	for ev := range b.events {
		ev(b.target)
	}
}

func (b *EventBus) emit(ev event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.events <- ev
}

func (b *EventBus) OnLog(line string, level entity.LogLevel) {
	b.emit(func(p output.PresenterPort) { p.OnLog(line, level) })
}

func (b *EventBus) OnProgress(percent int) {
	b.emit(func(p output.PresenterPort) { p.OnProgress(percent) })
}

func (b *EventBus) OnRunOutcome(success bool, message string) {
	b.emit(func(p output.PresenterPort) { p.OnRunOutcome(success, message) })
}

func (b *EventBus) OnItemsDiscovered(items []entity.WorkItem) {
	cp := append([]entity.WorkItem(nil), items...)
	b.emit(func(p output.PresenterPort) { p.OnItemsDiscovered(cp) })
}

// Flush blocks until every event emitted so far has been delivered.
func (b *EventBus) Flush() {
	delivered := make(chan struct{})
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	b.events <- func(output.PresenterPort) { close(delivered) }
	b.mu.RUnlock()
	<-delivered
}

// Close stops accepting events and waits until everything queued was delivered.
func (b *EventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()
	<-b.done
}

// NopPresenter discards every event.
type NopPresenter struct{}

func (NopPresenter) OnLog(string, entity.LogLevel) {}
func (NopPresenter) OnProgress(int) {}
func (NopPresenter) OnRunOutcome(bool, string) {}
func (NopPresenter) OnItemsDiscovered([]entity.WorkItem) {}
