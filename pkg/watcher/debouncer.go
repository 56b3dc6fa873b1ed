// Package watcher reloads a configuration file when it changes on disk.
package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the default debounce window.
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer turns a burst of file events into one reload. Editors often save
// as truncate, write, chmod or rename-replace; the reload runs once the file
// has been quiet for the window and is told how many events it absorbed.
type Debouncer struct {
	duration time.Duration
	reload   func(events int)

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	events int
}

// NewDebouncer creates a Debouncer that calls reload after each settled
// burst. A zero duration uses DefaultDebounceDuration.
func NewDebouncer(duration time.Duration, reload func(events int)) *Debouncer {
	if duration <= 0 {
		duration = DefaultDebounceDuration
	}
	return &Debouncer{duration: duration, reload: reload}
}

// Trigger records one event and restarts the quiet window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.events++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		n, ok := d.settle(gen)
		if !ok || d.reload == nil {
			return
		}
		d.reload(n)
	})
}

// settle hands out the burst if gen is still the latest event. A timer whose
// Stop lost the race against firing sees a newer generation and gives up.
func (d *Debouncer) settle(gen uint64) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		return 0, false
	}
	n := d.events
	d.events = 0
	d.timer = nil
	return n, true
}

// Pending reports whether a reload is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops the scheduled reload and the events it would have absorbed.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.events = 0
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the debounce window.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
