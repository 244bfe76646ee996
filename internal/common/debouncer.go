package common

import (
	"sync"
	"time"
)

// Debouncer is a simple time-based gate:
// - Ready tells whether enough time has passed since last Mark.
// - Mark records a successful action time.
//
// NOTE: This is intentionally minimal and concurrency-safe.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Ready reports whether the action should run now, based on last successful Mark.
// It does NOT update internal state.
func (d *Debouncer) Ready(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.interval <= 0 {
		return true
	}
	if d.last.IsZero() {
		return true
	}
	return now.Sub(d.last) >= d.interval
}

// Mark records a successful action time.
func (d *Debouncer) Mark(now time.Time) {
	d.mu.Lock()
	d.last = now
	d.mu.Unlock()
}

// Reset clears the last action time (next Ready will return true).
func (d *Debouncer) Reset() {
	d.mu.Lock()
	d.last = time.Time{}
	d.mu.Unlock()
}

// Coalescer collapses bursts of calls into one trailing invocation: each Do
// resets the timer, and only the last fn runs once the interval passes with
// no further calls. Used for input-driven quote requests so rapid keystrokes
// produce a single upstream query.
type Coalescer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
}

func NewCoalescer(interval time.Duration) *Coalescer {
	return &Coalescer{interval: interval}
}

// Do schedules fn to run after the quiet interval, cancelling any pending run.
func (c *Coalescer) Do(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	if c.interval <= 0 {
		go fn()
		return
	}
	c.timer = time.AfterFunc(c.interval, fn)
}

// Stop cancels any pending invocation.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
