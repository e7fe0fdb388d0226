package rx

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscription represents one observer's connection to an observable.
// Every stage of a pipeline instance shares a single Subscription, so
// canceling it stops the source, the operators in between, and delivery
// to the observer in one motion.
//
// A Subscription closes when the pipeline delivers a terminal signal,
// when [Subscription.Unsubscribe] is called, or when the subscribe
// context is canceled, whichever happens first. Closing is idempotent.
type Subscription struct {
	id     string
	done   chan struct{}
	closed atomic.Bool

	mu        sync.Mutex
	err       error
	teardowns []func()

	stopCtx func() bool
}

func newSubscription(ctx context.Context) *Subscription {
	s := &Subscription{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
	if ctx.Done() != nil {
		s.stopCtx = context.AfterFunc(ctx, func() {
			s.unsubscribe(context.Cause(ctx))
		})
	}
	return s
}

// ID returns the subscription's unique identifier. Subjects key their
// registries and per-subscriber stats by it.
func (s *Subscription) ID() string { return s.id }

// Done returns a channel that is closed once the subscription has
// closed, for any reason.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Closed reports whether the subscription has closed.
func (s *Subscription) Closed() bool { return s.closed.Load() }

// Err reports why the subscription closed: the pipeline's error signal,
// the subscribe context's cancel cause, or nil after a clean completion
// or a manual Unsubscribe. Err is zero until Done is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Unsubscribe closes the subscription and runs its teardowns. Signals
// still in flight are dropped. Safe to call more than once.
func (s *Subscription) Unsubscribe() { s.unsubscribe(nil) }

// AddTeardown registers fn to run when the subscription closes.
// Teardowns run in reverse registration order, exactly once. If the
// subscription has already closed, fn runs immediately.
func (s *Subscription) AddTeardown(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if !s.closed.Load() {
		s.teardowns = append(s.teardowns, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

func (s *Subscription) unsubscribe(cause error) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	s.err = cause
	tds := s.teardowns
	s.teardowns = nil
	s.mu.Unlock()

	if s.stopCtx != nil {
		s.stopCtx()
	}
	close(s.done)
	runTeardowns(tds)
}

// runTeardowns runs the teardown stack in LIFO order. A panicking
// teardown does not stop the rest: the first panic is captured as a
// [*PanicError] and re-raised only after every remaining teardown has
// run, so resources are released on every path and the fault is never
// silently dropped.
func runTeardowns(tds []func()) {
	var first *PanicError
	for i := len(tds) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil && first == nil {
					first = newPanicError(r)
				}
			}()
			tds[i]()
		}()
	}
	if first != nil {
		panic(first)
	}
}
