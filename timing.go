package rx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/reactkit/rx/sched"
)

// Delay re-emits each value d after its arrival, scheduled on s. Arrival
// order is preserved on serial schedulers: equal due times fall back to
// the scheduler's FIFO tie-break. Completion is delayed like a value so
// it cannot overtake one; an error propagates immediately and cancels
// every pending delivery, matching the rule that failure is not worth
// waiting for.
func Delay[T any](src Observable[T], d time.Duration, s sched.Scheduler) Observable[T] {
	if src == nil {
		panic("rx: Delay requires a non-nil source")
	}
	if d < 0 {
		panic("rx: Delay requires non-negative duration")
	}
	if s == nil {
		panic("rx: Delay requires a non-nil scheduler")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		st := newPendingSet()
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				id := st.nextID()
				c := s.ScheduleAfter(d, func() {
					st.fired(id)
					if sub.Closed() {
						return
					}
					dst.OnNext(v)
				})
				st.track(id, c)
			},
			OnComplete: func() {
				id := st.nextID()
				c := s.ScheduleAfter(d, func() {
					st.fired(id)
					if sub.Closed() {
						return
					}
					dst.OnComplete()
				})
				st.track(id, c)
			},
			OnError: func(err error) {
				st.cancelAll()
				dst.OnError(err)
			},
		})
		sub.AddTeardown(st.cancelAll)
	}}
}

// pendingSet tracks in-flight scheduled deliveries so an error or a
// teardown can revoke them. A task can fire before its CancelFunc is
// recorded; the fired set absorbs that window so the map never leaks.
type pendingSet struct {
	mu      sync.Mutex
	seq     uint64
	pending map[uint64]sched.CancelFunc
	done    map[uint64]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{
		pending: make(map[uint64]sched.CancelFunc),
		done:    make(map[uint64]struct{}),
	}
}

func (p *pendingSet) nextID() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	return p.seq
}

func (p *pendingSet) track(id uint64, c sched.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.done[id]; ok {
		delete(p.done, id)
		return
	}
	p.pending[id] = c
}

func (p *pendingSet) fired(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[id]; ok {
		delete(p.pending, id)
		return
	}
	p.done[id] = struct{}{}
}

func (p *pendingSet) cancelAll() {
	p.mu.Lock()
	cancels := make([]sched.CancelFunc, 0, len(p.pending))
	for _, c := range p.pending {
		cancels = append(cancels, c)
	}
	clear(p.pending)
	p.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

// Debounce forwards a value only after quiet time has passed without a
// newer one arriving; each arrival restarts the timer and supersedes the
// value before it. Completion flushes the pending value first, so the
// last value of a burst is never lost; an error propagates immediately
// and drops it. Deliveries are scheduled on s, so a [sched.Virtual]
// clock drives the quiet window deterministically in tests.
func Debounce[T any](src Observable[T], quiet time.Duration, s sched.Scheduler) Observable[T] {
	if src == nil {
		panic("rx: Debounce requires a non-nil source")
	}
	if quiet <= 0 {
		panic("rx: Debounce requires quiet > 0")
	}
	if s == nil {
		panic("rx: Debounce requires a non-nil scheduler")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		st := &debounceState[T]{}

		// revoke cancels the armed timer and invalidates any task that
		// already escaped cancellation. Callers deliver after unlocking.
		revoke := func() (T, bool) {
			st.mu.Lock()
			if st.cancel != nil {
				st.cancel()
				st.cancel = nil
			}
			out, flush := st.latest, st.waiting
			st.waiting = false
			st.gen++
			st.mu.Unlock()
			return out, flush
		}

		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				st.mu.Lock()
				if st.cancel != nil {
					st.cancel()
					st.cancel = nil
				}
				st.latest = v
				st.waiting = true
				st.gen++
				gen := st.gen
				st.mu.Unlock()

				c := s.ScheduleAfter(quiet, func() {
					st.mu.Lock()
					if st.gen != gen || !st.waiting {
						st.mu.Unlock()
						return
					}
					st.waiting = false
					out := st.latest
					st.mu.Unlock()
					if sub.Closed() {
						return
					}
					dst.OnNext(out)
				})

				// The task may have fired before we got its CancelFunc;
				// only arm it while this generation is still waiting.
				st.mu.Lock()
				if st.gen == gen && st.waiting {
					st.cancel = c
				}
				st.mu.Unlock()
			},
			OnComplete: func() {
				out, flush := revoke()
				if flush {
					dst.OnNext(out)
				}
				dst.OnComplete()
			},
			OnError: func(err error) {
				revoke()
				dst.OnError(err)
			},
		})
		sub.AddTeardown(func() {
			revoke()
		})
	}}
}

// debounceState is one armed quiet window. gen invalidates scheduled
// tasks that a rearm or a terminal could not cancel in time.
type debounceState[T any] struct {
	mu      sync.Mutex
	latest  T
	waiting bool
	gen     uint64
	cancel  sched.CancelFunc
}

// LimitWindow forwards at most one value per window: the first value of
// each window passes through synchronously and the rest are dropped.
// This is deliberate lossy sampling of bursty input, not backpressure.
// Terminal signals always pass through.
//
// The window is enforced with a token bucket asked for the scheduler's
// idea of now, so a [sched.Virtual] clock drives it deterministically in
// tests.
func LimitWindow[T any](src Observable[T], window time.Duration, s sched.Scheduler) Observable[T] {
	if src == nil {
		panic("rx: LimitWindow requires a non-nil source")
	}
	if window <= 0 {
		panic("rx: LimitWindow requires window > 0")
	}
	if s == nil {
		panic("rx: LimitWindow requires a non-nil scheduler")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		lim := rate.NewLimiter(rate.Every(window), 1)
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if lim.AllowN(s.Now(), 1) {
					dst.OnNext(v)
				}
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}
