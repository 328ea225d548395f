package viewport

import (
	"sort"
	"sync"
	"time"

	"github.com/abid8042/chessnetviz/pkg/graph"
)

// =============================================================================
// Clock
// =============================================================================

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped it
	// before it fired.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules on the runtime timer.
type RealClock struct{}

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualClock only fires callbacks when Advance moves it past their deadline.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock    *ManualClock
	deadline time.Duration
	fn       func()
	done     bool
}

// AfterFunc implements Clock.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, deadline: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Stop implements Timer.
func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward by d and runs every due callback in deadline
// order, outside the clock's lock.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due, rest []*manualTimer
	for _, t := range c.timers {
		switch {
		case t.done:
		case t.deadline <= c.now:
			t.done = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline < due[j].deadline })
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of callbacks that have neither fired nor been
// stopped.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// =============================================================================
// Debouncer
// =============================================================================

// Debouncer holds at most one pending callback. Scheduling a new one cancels
// the previous one first.
type Debouncer struct {
	clock Clock

	mu      sync.Mutex
	pending Timer
	gen     uint64
}

// NewDebouncer creates a debouncer on clock. A nil clock uses RealClock.
func NewDebouncer(clock Clock) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock}
}

// Schedule cancels any pending callback and arranges for fn to run after
// delay. A zero delay runs fn synchronously before returning.
func (d *Debouncer) Schedule(delay time.Duration, fn func()) {
	d.mu.Lock()
	d.cancelLocked()
	if delay <= 0 {
		d.mu.Unlock()
		fn()
		return
	}
	d.gen++
	gen := d.gen
	d.pending = d.clock.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
	d.mu.Unlock()
}

// ScheduleFit schedules fn after the settle delay of layout.
func (d *Debouncer) ScheduleFit(layout graph.LayoutType, fn func()) {
	d.Schedule(SettleDelay(layout), fn)
}

// Cancel drops the pending callback, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Pending reports whether a callback is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) cancelLocked() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.gen++
}
