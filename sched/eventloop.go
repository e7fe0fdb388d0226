package sched

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"
)

// EventLoop is a serial scheduler backed by one dedicated goroutine.
// Tasks run strictly in schedule order; timed tasks fire in due-time
// order with FIFO tie-break at equal due times, which is what gives
// delay-style operators their ordering guarantee.
//
// A panicking task is recovered and logged, and the loop keeps running.
// Tasks scheduled after [EventLoop.Stop] are silently dropped.
type EventLoop struct {
	mu   sync.Mutex
	q    timerQueue
	wake chan struct{}
	t    tomb.Tomb
}

// NewEventLoop starts the loop goroutine and returns the scheduler.
// Callers own the loop and must eventually call [EventLoop.Stop].
func NewEventLoop() *EventLoop {
	l := &EventLoop{wake: make(chan struct{}, 1)}
	l.t.Go(l.run)
	return l
}

// Now returns the current wall-clock time.
func (l *EventLoop) Now() time.Time { return time.Now() }

// Schedule enqueues task to run on the loop goroutine as soon as every
// earlier task has run.
func (l *EventLoop) Schedule(task func()) CancelFunc {
	return l.at(time.Now(), task)
}

// ScheduleAfter enqueues task to run on the loop goroutine once d has
// elapsed.
func (l *EventLoop) ScheduleAfter(d time.Duration, task func()) CancelFunc {
	return l.at(time.Now().Add(d), task)
}

func (l *EventLoop) at(due time.Time, task func()) CancelFunc {
	if !l.t.Alive() {
		return noop
	}
	l.mu.Lock()
	tt := l.q.add(due, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return tt.cancel
}

// Stop terminates the loop. Tasks already due when Stop is called still
// run; tasks due in the future are discarded. Stop blocks until the loop
// goroutine has exited and is safe to call more than once.
func (l *EventLoop) Stop() error {
	l.t.Kill(nil)
	return l.t.Wait()
}

func (l *EventLoop) run() error {
	for {
		l.mu.Lock()
		next, ok := l.q.peek()
		if !ok {
			l.mu.Unlock()
			select {
			case <-l.wake:
				continue
			case <-l.t.Dying():
				return nil
			}
		}

		if wait := time.Until(next.due); wait > 0 {
			l.mu.Unlock()
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-l.wake:
				timer.Stop()
			case <-l.t.Dying():
				timer.Stop()
				l.flushDue()
				return nil
			}
			continue
		}

		tt := l.q.next()
		l.mu.Unlock()

		if tt.canceled.Load() {
			continue
		}
		l.exec(tt)

		select {
		case <-l.t.Dying():
			l.flushDue()
			return nil
		default:
		}
	}
}

// flushDue runs the tasks that were already due when the loop was asked
// to stop and discards the rest.
func (l *EventLoop) flushDue() {
	now := time.Now()
	for {
		l.mu.Lock()
		next, ok := l.q.peek()
		if !ok || next.due.After(now) {
			l.q.items = nil
			l.mu.Unlock()
			return
		}
		tt := l.q.next()
		l.mu.Unlock()

		if tt.canceled.Load() {
			continue
		}
		l.exec(tt)
	}
}

func (l *EventLoop) exec(tt *timerTask) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"scheduler": "eventloop",
				"task":      tt.seq,
				"panic":     r,
			}).Error("sched: task panicked")
		}
	}()
	tt.fn()
}
