package rx

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
)

// DistinctUntilChanged suppresses consecutive duplicate values: each
// value is forwarded only if it differs from the last one forwarded.
// [1 1 2 2 3 1] becomes [1 2 3 1]. The first value always passes, and
// completion and error pass through no matter what was suppressed.
//
// The remembered value lives in the subscription, so concurrent
// subscriptions to the same decorated observable never share state, and
// applying the operator twice changes nothing: the inner pass leaves no
// adjacent duplicates for the outer pass to see.
func DistinctUntilChanged[T comparable](src Observable[T]) Observable[T] {
	if src == nil {
		panic("rx: DistinctUntilChanged requires a non-nil source")
	}
	return distinctUntilChanged(src, func(a, b T) bool { return a == b })
}

// DistinctUntilChangedFunc is [DistinctUntilChanged] with a caller
// equality function, for element types that are not comparable or need
// domain equality. eq receives (last forwarded, incoming).
func DistinctUntilChangedFunc[T any](src Observable[T], eq func(a, b T) bool) Observable[T] {
	if src == nil {
		panic("rx: DistinctUntilChangedFunc requires a non-nil source")
	}
	if eq == nil {
		panic("rx: DistinctUntilChangedFunc requires a non-nil equality func")
	}
	return distinctUntilChanged(src, eq)
}

func distinctUntilChanged[T any](src Observable[T], eq func(a, b T) bool) Observable[T] {
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		var last T
		have := false
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if have {
					same := false
					if err := guarded("distinct_until_changed", func() error {
						same = eq(last, v)
						return nil
					}); err != nil {
						dst.OnError(err)
						return
					}
					if same {
						return
					}
				}
				have = true
				last = v
				dst.OnNext(v)
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}

// Distinct forwards each value at most once per subscription, comparing
// against everything seen so far. The seen-set is unsynchronized because
// operator callbacks for one subscription never run concurrently.
func Distinct[T comparable](src Observable[T]) Observable[T] {
	if src == nil {
		panic("rx: Distinct requires a non-nil source")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		seen := mapset.NewThreadUnsafeSet[T]()
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if seen.Add(v) {
					dst.OnNext(v)
				}
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}
