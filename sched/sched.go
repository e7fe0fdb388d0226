// Package sched provides the execution contexts that rx pipelines run on.
//
// A [Scheduler] decides where and when a unit of pipeline work executes.
// The package ships five implementations:
//
//   - [Immediate]: direct call on the scheduling goroutine.
//   - [Trampoline]: cooperative FIFO queue drained on the goroutine that
//     scheduled the first task. Reentrant scheduling never grows the stack.
//   - [EventLoop]: a single dedicated goroutine with a timer queue.
//     Serial by construction, so per-subscription ordering is free.
//   - [Workers]: a fixed-size worker pool for pipelines that want
//     parallel task execution and do not care about cross-task order.
//   - [Virtual]: a manually advanced clock for deterministic tests of
//     time-based operators.
package sched

import "time"

// CancelFunc revokes a scheduled task. It is safe to call more than once
// and safe to call after the task has already run, in which case it does
// nothing.
type CancelFunc func()

func noop() {}

// Scheduler decides where and when scheduled tasks run.
//
// Implementations must run tasks at most once. Schedule enqueues a task
// to run as soon as the scheduler allows; ScheduleAfter runs it once d
// has elapsed on the scheduler's clock. Now reports that clock, which is
// wall time for every implementation except [Virtual].
type Scheduler interface {
	Now() time.Time
	Schedule(task func()) CancelFunc
	ScheduleAfter(d time.Duration, task func()) CancelFunc
}

// Immediate returns the direct-call scheduler: Schedule runs the task
// inline before returning, and ScheduleAfter sleeps on the calling
// goroutine until the task is due. The returned CancelFunc is always a
// no-op because by the time the caller holds it the task has run.
//
// This is the scheduler time-based operators default to when blocking
// the producer is acceptable.
func Immediate() Scheduler { return immediate{} }

type immediate struct{}

func (immediate) Now() time.Time { return time.Now() }

func (immediate) Schedule(task func()) CancelFunc {
	task()
	return noop
}

func (immediate) ScheduleAfter(d time.Duration, task func()) CancelFunc {
	if d > 0 {
		time.Sleep(d)
	}
	task()
	return noop
}
