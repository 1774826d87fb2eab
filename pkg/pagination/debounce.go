package pagination

import (
	"sync"
	"time"
)

// Debouncer runs at most one scheduled callback per quiet period.
// Each Schedule supersedes the previous pending task; a generation counter
// keeps a superseded timer from firing its callback after Stop raced it.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	gen     uint64
	timer   *time.Timer
	stopped bool
}

// Task is a handle to one scheduled run.
type Task struct {
	d   *Debouncer
	gen uint64
}

// NewDebouncer creates a debouncer that fires callbacks after delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule arranges for fn to run after the debounce delay and cancels any
// task scheduled earlier. It returns nil once the debouncer is stopped.
func (d *Debouncer) Schedule(fn func()) *Task {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return nil
	}

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped || d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})

	return &Task{d: d, gen: gen}
}

// Stop cancels the pending task and rejects future schedules.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a task is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel prevents the task from running. It returns false when the task
// already fired, was superseded, or was cancelled before.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}

	d := t.d
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.gen != t.gen || d.timer == nil {
		return false
	}

	d.gen++
	d.timer.Stop()
	d.timer = nil
	return true
}
