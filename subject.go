package rx

import (
	"context"
	"sync"
	"sync/atomic"
)

// Subject is a hot multicast stream: values pushed through [Subject.Next]
// fan out to every subscriber attached at that moment. Subscribers that
// attach later miss earlier values; attach after a terminal and the
// terminal alone is delivered immediately.
//
// The producer side latches on the first terminal: once Complete or
// Error has been called, every further producer call is a silent no-op.
// Delivery order across subscribers is unspecified. Producer calls from
// several goroutines are serialized by the caller, as everywhere else in
// the package; Subscribe and Unsubscribe may race freely with delivery.
type Subject[T any] struct {
	mu   sync.RWMutex
	subs map[string]*subjectEntry[T]
	done bool
	err  error

	published atomic.Uint64
}

type subjectEntry[T any] struct {
	snk       *sink[T]
	delivered atomic.Uint64
}

// NewSubject returns an empty live subject.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[string]*subjectEntry[T])}
}

// Subscribe attaches obs. The registry is keyed by the new
// subscription's ID, which is also how [Subject.Stats] reports
// per-subscriber counts.
func (s *Subject[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	if ctx == nil {
		ctx = context.Background()
	}
	sub := newSubscription(ctx)
	if ctx.Err() != nil {
		sub.unsubscribe(context.Cause(ctx))
		return sub
	}
	s.attach(sub, newSink(sub, obs, true))
	return sub
}

func (s *Subject[T]) attach(sub *Subscription, snk *sink[T]) {
	s.mu.Lock()
	if s.done {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			snk.Error(err)
		} else {
			snk.Complete()
		}
		return
	}
	s.subs[sub.ID()] = &subjectEntry[T]{snk: snk}
	s.mu.Unlock()

	sub.AddTeardown(func() {
		s.mu.Lock()
		delete(s.subs, sub.ID())
		s.mu.Unlock()
	})
}

// Next multicasts v to the current subscribers. Dropped after a
// terminal.
func (s *Subject[T]) Next(v T) {
	entries := s.snapshot()
	if entries == nil {
		return
	}
	s.published.Add(1)
	for _, e := range entries {
		if e.snk.Next(v) {
			e.delivered.Add(1)
		}
	}
}

// Complete terminates the subject: current subscribers receive the
// completion signal and future subscribers receive it at subscribe time.
func (s *Subject[T]) Complete() { s.terminate(nil) }

// Error terminates the subject with err. Panics if err is nil.
func (s *Subject[T]) Error(err error) {
	if err == nil {
		panic("rx: Subject.Error requires a non-nil error")
	}
	s.terminate(err)
}

func (s *Subject[T]) terminate(err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.err = err
	entries := make([]*subjectEntry[T], 0, len(s.subs))
	for _, e := range s.subs {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		if err != nil {
			e.snk.Error(err)
		} else {
			e.snk.Complete()
		}
	}
}

// snapshot copies the live entries out of the lock so delivery never
// holds it, which keeps Subscribe and Unsubscribe callable from inside
// observer callbacks. Returns nil after a terminal.
func (s *Subject[T]) snapshot() []*subjectEntry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return nil
	}
	entries := make([]*subjectEntry[T], 0, len(s.subs))
	for _, e := range s.subs {
		entries = append(entries, e)
	}
	return entries
}

func (s *Subject[T]) terminated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Observer adapts the subject's producer side into an [Observer], so a
// pipeline can be piped straight into it.
func (s *Subject[T]) Observer() Observer[T] {
	return Observer[T]{
		OnNext:     s.Next,
		OnComplete: s.Complete,
		OnError:    s.Error,
	}
}

// ObserverCount reports the number of attached subscribers.
func (s *Subject[T]) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// SubjectStats is a point-in-time snapshot of a subject's activity.
type SubjectStats struct {
	Published   uint64            // values pushed into the subject
	Subscribers int               // currently attached subscribers
	Delivered   map[string]uint64 // values delivered, keyed by Subscription.ID
}

// Stats returns a snapshot of the subject's counters.
// Safe to call concurrently.
func (s *Subject[T]) Stats() SubjectStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := SubjectStats{
		Published:   s.published.Load(),
		Subscribers: len(s.subs),
		Delivered:   make(map[string]uint64, len(s.subs)),
	}
	for id, e := range s.subs {
		st.Delivered[id] = e.delivered.Load()
	}
	return st
}

// ReplaySubject is a [Subject] with memory: the most recent values, up
// to a fixed depth, are replayed to each new subscriber before live
// delivery begins. A subscriber attaching after a terminal receives the
// buffered values and then the terminal.
type ReplaySubject[T any] struct {
	mu    sync.Mutex
	buf   []T
	depth int
	inner *Subject[T]
}

// NewReplaySubject returns a replay subject remembering the last depth
// values. Panics if depth <= 0.
func NewReplaySubject[T any](depth int) *ReplaySubject[T] {
	if depth <= 0 {
		panic("rx: NewReplaySubject requires depth > 0")
	}
	return &ReplaySubject[T]{depth: depth, inner: NewSubject[T]()}
}

// Subscribe replays the buffer to obs and then attaches it live. The
// replay and the attach happen atomically with respect to Next, so a
// value is never missed or seen twice across the boundary.
func (r *ReplaySubject[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	if ctx == nil {
		ctx = context.Background()
	}
	sub := newSubscription(ctx)
	if ctx.Err() != nil {
		sub.unsubscribe(context.Cause(ctx))
		return sub
	}
	snk := newSink(sub, obs, true)

	r.mu.Lock()
	for _, v := range r.buf {
		snk.Next(v)
	}
	r.inner.attach(sub, snk)
	r.mu.Unlock()
	return sub
}

// Next records v in the replay buffer and multicasts it.
func (r *ReplaySubject[T]) Next(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inner.terminated() {
		return
	}
	if len(r.buf) == r.depth {
		copy(r.buf, r.buf[1:])
		r.buf = r.buf[:r.depth-1]
	}
	r.buf = append(r.buf, v)
	r.inner.Next(v)
}

// Complete terminates the subject. The replay buffer survives for late
// subscribers.
func (r *ReplaySubject[T]) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inner.Complete()
}

// Error terminates the subject with err. Panics if err is nil.
func (r *ReplaySubject[T]) Error(err error) {
	if err == nil {
		panic("rx: ReplaySubject.Error requires a non-nil error")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inner.Error(err)
}

// Observer adapts the producer side into an [Observer].
func (r *ReplaySubject[T]) Observer() Observer[T] {
	return Observer[T]{
		OnNext:     r.Next,
		OnComplete: r.Complete,
		OnError:    r.Error,
	}
}

// ObserverCount reports the number of attached subscribers.
func (r *ReplaySubject[T]) ObserverCount() int { return r.inner.ObserverCount() }

// Stats returns a snapshot of the subject's counters.
func (r *ReplaySubject[T]) Stats() SubjectStats { return r.inner.Stats() }
