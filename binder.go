package rx

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/reactkit/rx/sched"
)

// Binder is the fluent face of the operator set: it wraps an observable
// so type-preserving operators chain as methods. Binders are immutable
// values; every method returns a derived binder and the original stays
// usable.
//
// Operators that change the element type cannot be methods, because a
// method cannot introduce a type parameter. They stay free functions:
// compose them with [From] to re-enter the chain, as in
//
//	rx.From(rx.Select(src, parse)).Where(valid).Take(10)
type Binder[T any] struct {
	src Observable[T]
}

// From wraps src in a [Binder]. It panics if src is nil.
func From[T any](src Observable[T]) Binder[T] {
	if src == nil {
		panic("rx: From requires a non-nil source")
	}
	return Binder[T]{src: src}
}

// Observable unwraps the binder back to the plain observable, for
// handing the composed pipeline to code that takes [Observable].
func (b Binder[T]) Observable() Observable[T] { return b.src }

// Where keeps only values accepted by pred.
func (b Binder[T]) Where(pred func(T) bool) Binder[T] {
	return Binder[T]{src: Where(b.src, pred)}
}

// Take forwards the first n values, then completes and cancels upstream.
func (b Binder[T]) Take(n int) Binder[T] {
	return Binder[T]{src: Take(b.src, n)}
}

// Skip discards the first n values.
func (b Binder[T]) Skip(n int) Binder[T] {
	return Binder[T]{src: Skip(b.src, n)}
}

// TakeWhile forwards values until pred rejects one.
func (b Binder[T]) TakeWhile(pred func(T) bool) Binder[T] {
	return Binder[T]{src: TakeWhile(b.src, pred)}
}

// SkipWhile discards values until pred rejects one.
func (b Binder[T]) SkipWhile(pred func(T) bool) Binder[T] {
	return Binder[T]{src: SkipWhile(b.src, pred)}
}

// Peek taps each value for side effects.
func (b Binder[T]) Peek(fn func(T)) Binder[T] {
	return Binder[T]{src: Peek(b.src, fn)}
}

// DistinctUntilChangedFunc suppresses consecutive duplicates under eq.
// The comparable-constrained spelling is the free function
// [DistinctUntilChanged]; a method cannot tighten T to comparable.
func (b Binder[T]) DistinctUntilChangedFunc(eq func(a, b T) bool) Binder[T] {
	return Binder[T]{src: DistinctUntilChangedFunc(b.src, eq)}
}

// MergeWith interleaves the stream with others.
func (b Binder[T]) MergeWith(others ...Observable[T]) Binder[T] {
	sources := append([]Observable[T]{b.src}, others...)
	return Binder[T]{src: Merge(sources...)}
}

// RaceWith mirrors whichever of the stream and its contenders emits
// first.
func (b Binder[T]) RaceWith(others ...Observable[T]) Binder[T] {
	sources := append([]Observable[T]{b.src}, others...)
	return Binder[T]{src: Race(sources...)}
}

// Delay re-emits each value d after arrival, on s.
func (b Binder[T]) Delay(d time.Duration, s sched.Scheduler) Binder[T] {
	return Binder[T]{src: Delay(b.src, d, s)}
}

// Debounce forwards a value once quiet time passes without a newer one.
func (b Binder[T]) Debounce(quiet time.Duration, s sched.Scheduler) Binder[T] {
	return Binder[T]{src: Debounce(b.src, quiet, s)}
}

// LimitWindow forwards at most one value per window.
func (b Binder[T]) LimitWindow(window time.Duration, s sched.Scheduler) Binder[T] {
	return Binder[T]{src: LimitWindow(b.src, window, s)}
}

// ObserveOn marshals delivery onto s.
func (b Binder[T]) ObserveOn(s sched.Scheduler, opts ...Option) Binder[T] {
	return Binder[T]{src: ObserveOn(b.src, s, opts...)}
}

// SubscribeOn runs the upstream subscription on s.
func (b Binder[T]) SubscribeOn(s sched.Scheduler) Binder[T] {
	return Binder[T]{src: SubscribeOn(b.src, s)}
}

// Retry resubscribes on error up to attempts extra times.
func (b Binder[T]) Retry(attempts int) Binder[T] {
	return Binder[T]{src: Retry(b.src, attempts)}
}

// BackoffRetry resubscribes on error per the backoff policy, on s.
func (b Binder[T]) BackoffRetry(policy func() backoff.BackOff, s sched.Scheduler) Binder[T] {
	return Binder[T]{src: BackoffRetry(b.src, policy, s)}
}

// Catch continues with the handler's observable after an error.
func (b Binder[T]) Catch(handler func(error) Observable[T]) Binder[T] {
	return Binder[T]{src: Catch(b.src, handler)}
}

// OnErrorReturn replaces an error with one fallback value.
func (b Binder[T]) OnErrorReturn(fn func(error) T) Binder[T] {
	return Binder[T]{src: OnErrorReturn(b.src, fn)}
}

// Subscribe attaches obs to the composed pipeline.
func (b Binder[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	return b.src.Subscribe(ctx, obs)
}

// ForEach subscribes with fn and blocks until the pipeline terminates.
func (b Binder[T]) ForEach(ctx context.Context, fn func(T)) error {
	return ForEach(ctx, b.src, fn)
}

// ToSlice collects the pipeline's output, blocking until it terminates.
func (b Binder[T]) ToSlice(ctx context.Context) ([]T, error) {
	return ToSlice(ctx, b.src)
}

// First blocks for the first value.
func (b Binder[T]) First(ctx context.Context) (T, error) {
	return First(ctx, b.src)
}

// Count blocks until termination and reports the number of values.
func (b Binder[T]) Count(ctx context.Context) (int, error) {
	return Count(ctx, b.src)
}
