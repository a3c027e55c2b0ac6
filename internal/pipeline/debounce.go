package pipeline

import (
	"time"

	"filekeeper/internal/model"
)

// Debouncer collapses a burst of events for one target into a single event.
// It owns no goroutine: the caller selects on C() and calls Take once it
// fires. The last event of a burst wins. Not safe for concurrent use.
type Debouncer struct {
	delay   time.Duration
	timer   *time.Timer
	pending *model.RestoreEvent
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Add starts the coalescing window, or restarts it if one is already open.
func (d *Debouncer) Add(event model.RestoreEvent) {
	d.pending = &event

	if d.timer == nil {
		d.timer = time.NewTimer(d.delay)
		return
	}

	d.timer.Reset(d.delay)
}

// C is nil while no window is open, so selecting on it blocks forever.
func (d *Debouncer) C() <-chan time.Time {
	if d.timer == nil {
		return nil
	}
	return d.timer.C
}

func (d *Debouncer) Pending() bool {
	return d.pending != nil
}

// Take closes the window and returns the coalesced event.
func (d *Debouncer) Take() (model.RestoreEvent, bool) {
	if d.pending == nil {
		return model.RestoreEvent{}, false
	}

	event := *d.pending
	d.Stop()
	return event, true
}

// Stop abandons any open window.
func (d *Debouncer) Stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}
