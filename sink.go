package rx

import "sync/atomic"

// sink binds an Observer to a Subscription and enforces the signal
// grammar at that point: nothing is delivered after the subscription
// closes, and at most one terminal signal goes through. A finalizing
// sink additionally closes the subscription after delivering a terminal,
// which is how teardown reaches the whole pipeline; the sink at the
// bottom of every chain finalizes, boundary sinks in the middle do not.
type sink[T any] struct {
	sub      *Subscription
	obs      Observer[T]
	finalize bool
	term     atomic.Bool
}

func newSink[T any](sub *Subscription, obs Observer[T], finalize bool) *sink[T] {
	return &sink[T]{sub: sub, obs: obs, finalize: finalize}
}

// Next delivers v unless the stage has terminated or the subscription
// closed. It reports whether the value was delivered.
func (s *sink[T]) Next(v T) bool {
	if s.term.Load() || s.sub.Closed() {
		return false
	}
	if s.obs.OnNext != nil {
		s.obs.OnNext(v)
	}
	return true
}

// Complete delivers the completion signal at most once.
func (s *sink[T]) Complete() {
	if s.sub.Closed() || !s.term.CompareAndSwap(false, true) {
		return
	}
	if s.obs.OnComplete != nil {
		s.obs.OnComplete()
	}
	if s.finalize {
		s.sub.unsubscribe(nil)
	}
}

// Error delivers err as the terminal signal at most once.
func (s *sink[T]) Error(err error) {
	if s.sub.Closed() || !s.term.CompareAndSwap(false, true) {
		return
	}
	if s.obs.OnError != nil {
		s.obs.OnError(err)
	}
	if s.finalize {
		s.sub.unsubscribe(err)
	}
}

// Observer adapts the sink back into the plain callback triple handed to
// upstream stages. All three fields are always set, which lets operator
// code invoke them without nil checks.
func (s *sink[T]) Observer() Observer[T] {
	return Observer[T]{
		OnNext:     func(v T) { s.Next(v) },
		OnComplete: s.Complete,
		OnError:    s.Error,
	}
}
