package rx

import (
	"context"
	"fmt"
	"sync"
)

// Race subscribes to all sources concurrently and mirrors the first one
// to emit a value. The losing sources are unsubscribed immediately.
//
// A source that terminates before emitting drops out of the race: its
// completion is ignored and its error is only remembered. If every
// source drops out, Race forwards the last error observed, or completes
// if none of them failed.
//
// If sources is empty, Race completes immediately.
//
// Race panics if any element of sources is nil.
func Race[T any](sources ...Observable[T]) Observable[T] {
	for i, src := range sources {
		if src == nil {
			panic(fmt.Sprintf("rx: Race source[%d] must not be nil", i))
		}
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		if len(sources) == 0 {
			dst.OnComplete()
			return
		}

		st := &raceState[T]{
			dst:     dst,
			pending: len(sources),
			cancels: make([]func(), len(sources)),
		}

		for i, src := range sources {
			i := i
			inner := src.Subscribe(ctx, Observer[T]{
				OnNext:     func(v T) { st.next(i, v) },
				OnComplete: func() { st.leave(i, nil) },
				OnError:    func(err error) { st.leave(i, err) },
			})
			st.register(i, inner.Unsubscribe)
		}
		sub.AddTeardown(st.stop)
	}}
}

// raceState tracks contenders until one of them produces a value.
type raceState[T any] struct {
	mu      sync.Mutex
	dst     Observer[T]
	winner  int
	decided bool
	done    bool
	pending int
	lastErr error
	cancels []func()
}

func (st *raceState[T]) register(i int, cancel func()) {
	st.mu.Lock()
	// The source may have decided the race, or lost it, while its
	// Subscribe call was still running.
	dead := st.done || (st.decided && st.winner != i)
	if !dead {
		st.cancels[i] = cancel
	}
	st.mu.Unlock()
	if dead {
		cancel()
	}
}

func (st *raceState[T]) next(i int, v T) {
	st.mu.Lock()
	if st.done || (st.decided && st.winner != i) {
		st.mu.Unlock()
		return
	}
	var losers []func()
	if !st.decided {
		st.decided = true
		st.winner = i
		for j, c := range st.cancels {
			if j != i && c != nil {
				losers = append(losers, c)
				st.cancels[j] = nil
			}
		}
	}
	st.mu.Unlock()

	for _, c := range losers {
		c()
	}
	st.dst.OnNext(v)
}

func (st *raceState[T]) leave(i int, err error) {
	st.mu.Lock()
	if st.done {
		st.mu.Unlock()
		return
	}
	if st.decided {
		if st.winner != i {
			st.mu.Unlock()
			return
		}
		// The winner's own terminal ends the stream.
		st.done = true
		st.mu.Unlock()
		if err != nil {
			st.dst.OnError(err)
		} else {
			st.dst.OnComplete()
		}
		return
	}

	if err != nil {
		st.lastErr = err
	}
	st.pending--
	if st.pending > 0 {
		st.mu.Unlock()
		return
	}
	// Everyone dropped out before emitting.
	st.done = true
	lastErr := st.lastErr
	st.mu.Unlock()
	if lastErr != nil {
		st.dst.OnError(lastErr)
	} else {
		st.dst.OnComplete()
	}
}

func (st *raceState[T]) stop() {
	st.mu.Lock()
	st.done = true
	cancels := st.cancels
	st.cancels = nil
	st.mu.Unlock()
	for _, c := range cancels {
		if c != nil {
			c()
		}
	}
}
