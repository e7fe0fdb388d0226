package rx

import (
	"context"
	"sync"

	"github.com/reactkit/rx/sched"
)

type signalKind uint8

const (
	sigNext signalKind = iota
	sigComplete
	sigError
)

// signal is one queued delivery in an observe-on marshal queue.
type signal[T any] struct {
	kind  signalKind
	value T
	err   error
}

// ObserveOn moves delivery onto s: every signal is appended to a FIFO
// queue and handed to the observer by tasks scheduled on s, with at
// most one drain task active per subscription. That single-drain rule
// preserves emission order even on a multi-worker scheduler.
//
// The queue is unbounded by default. [WithQueueCapacity] bounds it,
// dropping values when full per [WithDropOldest]; terminal signals are
// never dropped.
func ObserveOn[T any](src Observable[T], s sched.Scheduler, opts ...Option) Observable[T] {
	if src == nil {
		panic("rx: ObserveOn requires a non-nil source")
	}
	if s == nil {
		panic("rx: ObserveOn requires a non-nil scheduler")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		q := &marshalQueue[T]{cfg: cfg, dst: dst, sched: s}
		connectTo(ctx, sub, src, Observer[T]{
			OnNext:     func(v T) { q.push(signal[T]{kind: sigNext, value: v}) },
			OnComplete: func() { q.push(signal[T]{kind: sigComplete}) },
			OnError:    func(err error) { q.push(signal[T]{kind: sigError, err: err}) },
		})
		sub.AddTeardown(q.stop)
	}}
}

// marshalQueue carries signals across the scheduler boundary. Values
// are appended under the lock and drained by one scheduled task at a
// time; a terminal signal is always the queue's last element because
// upstream goes quiet after it.
type marshalQueue[T any] struct {
	mu       sync.Mutex
	items    []signal[T]
	draining bool
	stopped  bool
	cancel   sched.CancelFunc

	cfg   config
	dst   Observer[T]
	sched sched.Scheduler
}

func (q *marshalQueue[T]) push(sg signal[T]) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	if sg.kind == sigNext && q.cfg.queueCap > 0 && len(q.items) >= q.cfg.queueCap {
		if !q.cfg.dropOldest {
			q.mu.Unlock()
			return
		}
		// The oldest entry is always a value: a terminal would sit at
		// the tail, and nothing follows a terminal.
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append(q.items, sg)
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	c := q.sched.Schedule(q.drain)

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		c()
		return
	}
	q.cancel = c
	q.mu.Unlock()
}

func (q *marshalQueue[T]) drain() {
	for {
		q.mu.Lock()
		if q.stopped || len(q.items) == 0 {
			q.draining = false
			q.cancel = nil
			q.mu.Unlock()
			return
		}
		sg := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		switch sg.kind {
		case sigNext:
			q.dst.OnNext(sg.value)
		case sigComplete:
			q.dst.OnComplete()
		case sigError:
			q.dst.OnError(sg.err)
		}
	}
}

func (q *marshalQueue[T]) stop() {
	q.mu.Lock()
	q.stopped = true
	q.items = nil
	c := q.cancel
	q.cancel = nil
	q.mu.Unlock()
	if c != nil {
		c()
	}
}

// SubscribeOn defers the upstream subscription itself onto s: Subscribe
// returns immediately with a live subscription and the source's
// producer runs as a scheduled task. This is the difference between
// moving where values are handled (ObserveOn) and moving where they are
// produced.
func SubscribeOn[T any](src Observable[T], s sched.Scheduler) Observable[T] {
	if src == nil {
		panic("rx: SubscribeOn requires a non-nil source")
	}
	if s == nil {
		panic("rx: SubscribeOn requires a non-nil scheduler")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		c := s.Schedule(func() {
			if sub.Closed() {
				return
			}
			connectTo(ctx, sub, src, dst)
		})
		sub.AddTeardown(c)
	}}
}
