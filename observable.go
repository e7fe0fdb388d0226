package rx

import (
	"context"
	"sync/atomic"
)

// Observable is a push-based sequence of values. Subscribing attaches an
// [Observer] and returns the [Subscription] that controls the pipeline
// instance created by that call; each Subscribe runs the chain with
// fresh operator state.
//
// Unless the pipeline routes through a scheduler, emission is
// synchronous: a finite cold source delivers every signal on the calling
// goroutine before Subscribe returns, and the returned subscription is
// already closed.
type Observable[T any] interface {
	Subscribe(ctx context.Context, obs Observer[T]) *Subscription
}

// ObservableFunc adapts an ordinary subscribe function into an
// [Observable], for implementations living outside this package.
type ObservableFunc[T any] func(ctx context.Context, obs Observer[T]) *Subscription

// Subscribe calls f.
func (f ObservableFunc[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	return f(ctx, obs)
}

// observable is the in-package implementation. connect wires a pipeline
// stage into an existing subscription; dst always has all three
// callbacks set.
type observable[T any] struct {
	connect func(ctx context.Context, sub *Subscription, dst Observer[T])
}

func (o *observable[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	if ctx == nil {
		ctx = context.Background()
	}
	sub := newSubscription(ctx)
	if ctx.Err() != nil {
		sub.unsubscribe(context.Cause(ctx))
		return sub
	}
	o.connect(ctx, sub, newSink(sub, obs, true).Observer())
	return sub
}

// connectTo subscribes dst to src as a stage of an existing pipeline.
// Native observables join the shared subscription directly. A foreign
// [Observable] implementation is bridged through its own subscription,
// linked as a teardown, with a non-finalizing sink guarding the signal
// grammar at the boundary.
func connectTo[T any](ctx context.Context, sub *Subscription, src Observable[T], dst Observer[T]) {
	if o, ok := src.(*observable[T]); ok {
		o.connect(ctx, sub, dst)
		return
	}
	inner := src.Subscribe(ctx, newSink(sub, dst, false).Observer())
	sub.AddTeardown(inner.Unsubscribe)
}

// Create builds an observable from a producer function. The producer
// runs synchronously inside each Subscribe call and pushes signals
// through the [Emitter]; it must stop once [Emitter.Next] returns false.
// Long-running producers combine Create with a subscribe-on scheduler to
// get off the subscriber's goroutine.
func Create[T any](produce func(ctx context.Context, e *Emitter[T])) Observable[T] {
	if produce == nil {
		panic("rx: Create requires a non-nil producer")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		produce(ctx, &Emitter[T]{sub: sub, dst: dst})
	}}
}

// Emitter is the producer side of a [Create] observable. It enforces the
// signal grammar: after a terminal signal or cancellation every call is
// a silent no-op.
type Emitter[T any] struct {
	sub  *Subscription
	dst  Observer[T]
	term atomic.Bool
}

// Next delivers v downstream. It returns false once the subscription has
// been canceled or a terminal signal delivered; producers must stop
// emitting when that happens. Cancellation from downstream operators,
// such as a take that has seen enough, is visible in the return value of
// the emission that triggered it.
func (e *Emitter[T]) Next(v T) bool {
	if e.term.Load() || e.sub.Closed() {
		return false
	}
	e.dst.OnNext(v)
	return !e.term.Load() && !e.sub.Closed()
}

// Complete delivers the completion signal, once.
func (e *Emitter[T]) Complete() {
	if e.sub.Closed() || !e.term.CompareAndSwap(false, true) {
		return
	}
	e.dst.OnComplete()
}

// Error delivers err as the terminal signal, once.
func (e *Emitter[T]) Error(err error) {
	if e.sub.Closed() || !e.term.CompareAndSwap(false, true) {
		return
	}
	e.dst.OnError(err)
}

// Canceled returns a channel closed when the subscription closes, for
// producers that block in select.
func (e *Emitter[T]) Canceled() <-chan struct{} { return e.sub.Done() }
