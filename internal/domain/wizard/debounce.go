package wizard

import (
	"sync"
	"time"
)

// Debouncer coalesces triggers into one event per quiet window. Events are
// delivered on C; at most one is buffered.
type Debouncer struct {
	delay time.Duration
	c     chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer that fires delay after the last trigger.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, c: make(chan struct{}, 1)}
}

// Trigger restarts the quiet window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	select {
	case d.c <- struct{}{}:
	default:
	}
}

// C returns the event channel.
func (d *Debouncer) C() <-chan struct{} {
	return d.c
}

// Stop cancels a pending window. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
