package rx

import (
	"context"
	"sync"
	"time"

	"github.com/reactkit/rx/sched"
)

// FromSlice returns a cold observable that emits every element of items
// in order, then completes. Each subscription replays the slice from the
// start.
func FromSlice[T any](items []T) Observable[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) {
		for _, v := range items {
			if !e.Next(v) {
				return
			}
		}
		e.Complete()
	})
}

// Just returns a cold observable emitting exactly the given values.
func Just[T any](values ...T) Observable[T] {
	return FromSlice(values)
}

// Range returns a cold observable emitting count integers starting at
// start. It panics if count is negative.
func Range(start, count int) Observable[int] {
	if count < 0 {
		panic("rx: Range requires non-negative count")
	}
	return Create(func(ctx context.Context, e *Emitter[int]) {
		for i := 0; i < count; i++ {
			if !e.Next(start + i) {
				return
			}
		}
		e.Complete()
	})
}

// Empty returns an observable that completes immediately without
// emitting.
func Empty[T any]() Observable[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) {
		e.Complete()
	})
}

// Never returns an observable that emits nothing and never terminates.
// Subscriptions end only through cancellation.
func Never[T any]() Observable[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) {})
}

// Throw returns an observable that signals err immediately.
func Throw[T any](err error) Observable[T] {
	if err == nil {
		panic("rx: Throw requires a non-nil error")
	}
	return Create(func(ctx context.Context, e *Emitter[T]) {
		e.Error(err)
	})
}

// Defer builds the observable lazily, once per subscription, so each
// subscriber sees a fresh source produced at subscribe time.
func Defer[T any](factory func() Observable[T]) Observable[T] {
	if factory == nil {
		panic("rx: Defer requires a non-nil factory")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		var src Observable[T]
		if err := guarded("defer", func() error {
			src = factory()
			return nil
		}); err != nil {
			dst.OnError(err)
			return
		}
		if src == nil {
			dst.OnError(&OpError{Op: "defer", Err: errNilSource})
			return
		}
		connectTo(ctx, sub, src, dst)
	}}
}

// FromChan returns an observable that emits values received from ch and
// completes when ch is closed. Receiving blocks the subscribing
// goroutine, so a pipeline that should run in the background combines
// FromChan with [SubscribeOn].
func FromChan[T any](ch <-chan T) Observable[T] {
	if ch == nil {
		panic("rx: FromChan requires a non-nil channel")
	}
	return Create(func(ctx context.Context, e *Emitter[T]) {
		for {
			select {
			case v, ok := <-ch:
				if !ok {
					e.Complete()
					return
				}
				if !e.Next(v) {
					return
				}
			case <-e.Canceled():
				return
			}
		}
	})
}

// Interval emits a monotonically increasing counter, starting at zero,
// once per period on the given scheduler. The first tick fires one full
// period after subscribing. The sequence never completes on its own.
func Interval(period time.Duration, s sched.Scheduler) Observable[int64] {
	if period <= 0 {
		panic("rx: Interval requires period > 0")
	}
	if s == nil {
		panic("rx: Interval requires a non-nil scheduler")
	}
	return &observable[int64]{connect: func(ctx context.Context, sub *Subscription, dst Observer[int64]) {
		st := &intervalState{}
		var n int64
		var tick func()
		tick = func() {
			if sub.Closed() {
				return
			}
			dst.OnNext(n)
			n++
			if sub.Closed() {
				return
			}
			st.rearm(s.ScheduleAfter(period, tick))
		}
		st.rearm(s.ScheduleAfter(period, tick))
		sub.AddTeardown(st.stop)
	}}
}

// intervalState tracks the pending tick so teardown can cancel it. Ticks
// are serialized by the scheduler; the mutex only covers the handoff
// between the ticking goroutine and teardown.
type intervalState struct {
	mu      sync.Mutex
	cancel  sched.CancelFunc
	stopped bool
}

func (st *intervalState) rearm(c sched.CancelFunc) {
	st.mu.Lock()
	if st.stopped {
		st.mu.Unlock()
		c()
		return
	}
	st.cancel = c
	st.mu.Unlock()
}

func (st *intervalState) stop() {
	st.mu.Lock()
	st.stopped = true
	c := st.cancel
	st.cancel = nil
	st.mu.Unlock()
	if c != nil {
		c()
	}
}
