package sched

import (
	"sync"
	"time"
)

// Virtual is a scheduler whose clock only moves when the test advances
// it. Tasks run inline on the goroutine calling [Virtual.AdvanceBy],
// [Virtual.AdvanceTo] or [Virtual.Flush], in due-time order with FIFO
// tie-break, and Now reports each task's own due time while it runs.
//
// Tasks may schedule further tasks; an advance keeps running tasks until
// none are due at or before the target time. Advancing from inside a
// scheduled task is not supported.
type Virtual struct {
	mu  sync.Mutex
	q   timerQueue
	now time.Time
}

// NewVirtual returns a virtual scheduler whose clock starts at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual clock's current time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// Schedule enqueues task as due at the current virtual time. It does not
// run until the clock is advanced or flushed.
func (v *Virtual) Schedule(task func()) CancelFunc {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.q.add(v.now, task).cancel
}

// ScheduleAfter enqueues task as due d past the current virtual time.
func (v *Virtual) ScheduleAfter(d time.Duration, task func()) CancelFunc {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.q.add(v.now.Add(d), task).cancel
}

// AdvanceBy moves the clock forward by d, running every task that comes
// due along the way.
func (v *Virtual) AdvanceBy(d time.Duration) {
	v.AdvanceTo(v.Now().Add(d))
}

// AdvanceTo moves the clock to target, running every task due at or
// before it in due-time order. Tasks scheduled by running tasks are
// included when they fall inside the window. Moving the clock backwards
// is a no-op.
func (v *Virtual) AdvanceTo(target time.Time) {
	for {
		v.mu.Lock()
		next, ok := v.q.peek()
		if !ok || next.due.After(target) {
			if target.After(v.now) {
				v.now = target
			}
			v.mu.Unlock()
			return
		}
		tt := v.q.next()
		if tt.due.After(v.now) {
			v.now = tt.due
		}
		v.mu.Unlock()

		if tt.canceled.Load() {
			continue
		}
		tt.fn()
	}
}

// Flush runs every task already due at the current virtual time without
// moving the clock.
func (v *Virtual) Flush() {
	v.AdvanceTo(v.Now())
}

// Len reports the number of pending tasks, including canceled ones that
// have not yet been discarded.
func (v *Virtual) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.q.Len()
}
