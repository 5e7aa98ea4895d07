// Package debounce delays a call until its trigger has been quiet for a fixed window.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently triggered function once no trigger
// has arrived for the configured delay.
type Debouncer struct {
	delay time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64 // bumped on every trigger, cancel and stop
	stopped    bool
}

// New creates a Debouncer with the given quiescence window.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger cancels any pending call and schedules fn to run after the delay.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.resetLocked()
	generation := d.generation

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := !d.stopped && generation == d.generation
		if current {
			d.timer = nil
		}
		d.mu.Unlock()

		// A timer that fired while being reset belongs to a superseded trigger.
		if current {
			fn()
		}
	})
}

// Cancel drops the pending call, if any. Later triggers work as usual.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.resetLocked()
}

// Stop drops the pending call and ignores every later trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.resetLocked()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.timer != nil
}

func (d *Debouncer) resetLocked() {
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
