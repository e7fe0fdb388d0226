package sched

import (
	"sync"
	"time"
)

// Trampoline is a cooperative scheduler: the goroutine that schedules
// the first task becomes the drain loop and runs every task scheduled
// while it is draining, in due-time order with FIFO tie-break. Reentrant
// Schedule calls from inside a running task enqueue instead of recursing,
// so deeply nested scheduling never grows the stack.
//
// ScheduleAfter sleeps the draining goroutine until the task is due.
// The zero value is not ready for use; call [NewTrampoline].
type Trampoline struct {
	mu     sync.Mutex
	q      timerQueue
	active bool
}

// NewTrampoline returns an empty trampoline scheduler.
func NewTrampoline() *Trampoline { return &Trampoline{} }

// Now returns the current wall-clock time.
func (t *Trampoline) Now() time.Time { return time.Now() }

// Schedule enqueues task. If no task is currently draining, the calling
// goroutine drains the queue before Schedule returns.
func (t *Trampoline) Schedule(task func()) CancelFunc {
	return t.enqueue(time.Now(), task)
}

// ScheduleAfter enqueues task to run once d has elapsed. If the calling
// goroutine becomes the drainer, it sleeps until the task is due.
func (t *Trampoline) ScheduleAfter(d time.Duration, task func()) CancelFunc {
	return t.enqueue(time.Now().Add(d), task)
}

func (t *Trampoline) enqueue(due time.Time, task func()) CancelFunc {
	t.mu.Lock()
	tt := t.q.add(due, task)
	if t.active {
		t.mu.Unlock()
		return tt.cancel
	}
	t.active = true
	t.mu.Unlock()

	t.drain()
	return tt.cancel
}

func (t *Trampoline) drain() {
	for {
		t.mu.Lock()
		if t.q.Len() == 0 {
			t.active = false
			t.mu.Unlock()
			return
		}
		tt := t.q.next()
		t.mu.Unlock()

		if tt.canceled.Load() {
			continue
		}
		if wait := time.Until(tt.due); wait > 0 {
			time.Sleep(wait)
		}
		tt.fn()
	}
}
