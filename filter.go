package rx

import "context"

// Where forwards only the values pred accepts. A panic in pred
// terminates the pipeline with an [*OpError].
func Where[T any](src Observable[T], pred func(T) bool) Observable[T] {
	if src == nil {
		panic("rx: Where requires a non-nil source")
	}
	if pred == nil {
		panic("rx: Where requires a non-nil predicate")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				keep := false
				if err := guarded("where", func() error {
					keep = pred(v)
					return nil
				}); err != nil {
					dst.OnError(err)
					return
				}
				if keep {
					dst.OnNext(v)
				}
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}

// Take forwards the first n values, then completes and cancels the
// upstream subscription even if the source has more to give; with a
// synchronous source the producer loop observes the cancellation on the
// emission after the nth. Take(src, 0) completes immediately without
// subscribing upstream. It panics if n is negative.
func Take[T any](src Observable[T], n int) Observable[T] {
	if src == nil {
		panic("rx: Take requires a non-nil source")
	}
	if n < 0 {
		panic("rx: Take requires non-negative n")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		if n == 0 {
			dst.OnComplete()
			return
		}
		taken := 0
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if taken >= n {
					return
				}
				taken++
				dst.OnNext(v)
				if taken == n {
					// Completing through the chain closes the shared
					// subscription, which is what stops the upstream
					// producer.
					dst.OnComplete()
				}
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}

// Skip discards the first n values and forwards the rest.
// It panics if n is negative.
func Skip[T any](src Observable[T], n int) Observable[T] {
	if src == nil {
		panic("rx: Skip requires a non-nil source")
	}
	if n < 0 {
		panic("rx: Skip requires non-negative n")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		skipped := 0
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if skipped < n {
					skipped++
					return
				}
				dst.OnNext(v)
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}

// TakeWhile forwards values while pred accepts them, then completes on
// the first rejection, which cancels upstream.
func TakeWhile[T any](src Observable[T], pred func(T) bool) Observable[T] {
	if src == nil {
		panic("rx: TakeWhile requires a non-nil source")
	}
	if pred == nil {
		panic("rx: TakeWhile requires a non-nil predicate")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				keep := false
				if err := guarded("take_while", func() error {
					keep = pred(v)
					return nil
				}); err != nil {
					dst.OnError(err)
					return
				}
				if !keep {
					dst.OnComplete()
					return
				}
				dst.OnNext(v)
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}

// SkipWhile discards values while pred accepts them, then forwards
// everything from the first rejection on, without consulting pred again.
func SkipWhile[T any](src Observable[T], pred func(T) bool) Observable[T] {
	if src == nil {
		panic("rx: SkipWhile requires a non-nil source")
	}
	if pred == nil {
		panic("rx: SkipWhile requires a non-nil predicate")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		skipping := true
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if skipping {
					keep := true
					if err := guarded("skip_while", func() error {
						keep = pred(v)
						return nil
					}); err != nil {
						dst.OnError(err)
						return
					}
					if keep {
						return
					}
					skipping = false
				}
				dst.OnNext(v)
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}

// Peek invokes fn for each value without altering the stream, for
// side effects like counting or logging. A panic in fn terminates the
// pipeline like any other callback fault.
func Peek[T any](src Observable[T], fn func(T)) Observable[T] {
	if src == nil {
		panic("rx: Peek requires a non-nil source")
	}
	if fn == nil {
		panic("rx: Peek requires a non-nil callback")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if err := guarded("peek", func() error {
					fn(v)
					return nil
				}); err != nil {
					dst.OnError(err)
					return
				}
				dst.OnNext(v)
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}
