package rx

import (
	"context"
	"sync"
)

// Select transforms each value through fn, one output per input. The
// selector runs on the delivery goroutine; a returned error or a panic
// terminates the pipeline with an [*OpError] after the values already
// emitted.
//
// Select changes the element type, so like every type-changing operator
// it is a free function rather than a [Binder] method: Go methods cannot
// introduce new type parameters.
func Select[T, U any](src Observable[T], fn func(T) (U, error)) Observable[U] {
	if src == nil {
		panic("rx: Select requires a non-nil source")
	}
	if fn == nil {
		panic("rx: Select requires a non-nil selector")
	}
	return &observable[U]{connect: func(ctx context.Context, sub *Subscription, dst Observer[U]) {
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				var out U
				if err := guarded("select", func() error {
					var err error
					out, err = fn(v)
					return err
				}); err != nil {
					dst.OnError(err)
					return
				}
				dst.OnNext(out)
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}

// SelectMany maps each value to an inner observable and flattens the
// inner emissions into one output stream. Inner streams are subscribed
// as their outer value arrives and run concurrently; output order
// follows arrival order across all active inners. The output completes
// once the outer stream and every inner stream have completed, and the
// first error from any of them terminates everything.
func SelectMany[T, U any](src Observable[T], sel func(T) Observable[U]) Observable[U] {
	if src == nil {
		panic("rx: SelectMany requires a non-nil source")
	}
	if sel == nil {
		panic("rx: SelectMany requires a non-nil selector")
	}
	return &observable[U]{connect: func(ctx context.Context, sub *Subscription, dst Observer[U]) {
		fan := newFanIn(dst, 1)
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				var inner Observable[U]
				if err := guarded("select_many", func() error {
					inner = sel(v)
					return nil
				}); err != nil {
					fan.fail(err)
					return
				}
				if inner == nil {
					fan.fail(&OpError{Op: "select_many", Err: errNilSource})
					return
				}
				if !fan.enter() {
					return
				}
				connectTo(ctx, sub, inner, fan.observer())
			},
			OnComplete: fan.leave,
			OnError:    fan.fail,
		})
	}}
}

// SelectManyLimit is [SelectMany] with at most limit inner streams
// subscribed at once. Outer values arriving while every slot is busy
// wait in arrival order and are subscribed as running inners complete.
// Panics if limit <= 0.
func SelectManyLimit[T, U any](src Observable[T], limit int, sel func(T) Observable[U]) Observable[U] {
	if src == nil {
		panic("rx: SelectManyLimit requires a non-nil source")
	}
	if sel == nil {
		panic("rx: SelectManyLimit requires a non-nil selector")
	}
	if limit <= 0 {
		panic("rx: SelectManyLimit requires limit > 0")
	}
	return &observable[U]{connect: func(ctx context.Context, sub *Subscription, dst Observer[U]) {
		fan := newFanIn(dst, 1)
		st := &limitState[T]{slots: limit}

		var launch func(T)
		launch = func(v T) {
			var inner Observable[U]
			if err := guarded("select_many", func() error {
				inner = sel(v)
				return nil
			}); err != nil {
				fan.fail(err)
				return
			}
			if inner == nil {
				fan.fail(&OpError{Op: "select_many", Err: errNilSource})
				return
			}
			if !fan.enter() {
				return
			}
			connectTo(ctx, sub, inner, Observer[U]{
				OnNext: fan.next,
				OnComplete: func() {
					// Hand the freed slot to the next queued value before
					// retiring this stage, so the fan-in never drains to
					// zero while work is still waiting.
					st.mu.Lock()
					if len(st.queue) > 0 {
						next := st.queue[0]
						st.queue = st.queue[1:]
						st.mu.Unlock()
						launch(next)
						fan.leave()
						return
					}
					st.slots++
					st.mu.Unlock()
					fan.leave()
				},
				OnError: fan.fail,
			})
		}

		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				st.mu.Lock()
				if st.slots == 0 {
					st.queue = append(st.queue, v)
					st.mu.Unlock()
					return
				}
				st.slots--
				st.mu.Unlock()
				launch(v)
			},
			OnComplete: fan.leave,
			OnError:    fan.fail,
		})
	}}
}

// limitState is the slot accounting for [SelectManyLimit]. slots counts
// free subscription slots; queue holds outer values waiting for one.
type limitState[T any] struct {
	mu    sync.Mutex
	queue []T
	slots int
}

// SelectManyResult is [SelectMany] with a result selector: each inner
// value is combined with the outer value that produced its stream.
func SelectManyResult[T, C, R any](src Observable[T], sel func(T) Observable[C], result func(T, C) (R, error)) Observable[R] {
	if src == nil {
		panic("rx: SelectManyResult requires a non-nil source")
	}
	if sel == nil {
		panic("rx: SelectManyResult requires a non-nil selector")
	}
	if result == nil {
		panic("rx: SelectManyResult requires a non-nil result selector")
	}
	return &observable[R]{connect: func(ctx context.Context, sub *Subscription, dst Observer[R]) {
		fan := newFanIn(dst, 1)
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(outer T) {
				var inner Observable[C]
				if err := guarded("select_many", func() error {
					inner = sel(outer)
					return nil
				}); err != nil {
					fan.fail(err)
					return
				}
				if inner == nil {
					fan.fail(&OpError{Op: "select_many", Err: errNilSource})
					return
				}
				if !fan.enter() {
					return
				}
				connectTo(ctx, sub, inner, Observer[C]{
					OnNext: func(c C) {
						var r R
						if err := guarded("select_many", func() error {
							var err error
							r, err = result(outer, c)
							return err
						}); err != nil {
							fan.fail(err)
							return
						}
						fan.next(r)
					},
					OnComplete: fan.leave,
					OnError:    fan.fail,
				})
			},
			OnComplete: fan.leave,
			OnError:    fan.fail,
		})
	}}
}

// MergeAll flattens an observable of observables. It is SelectMany with
// the identity selector; the signature itself restricts it to streams
// whose element type is a stream.
func MergeAll[T any](src Observable[Observable[T]]) Observable[T] {
	if src == nil {
		panic("rx: MergeAll requires a non-nil source")
	}
	return SelectMany(src, func(o Observable[T]) Observable[T] { return o })
}

// Scan folds values through fn and emits every intermediate
// accumulator, starting from seed. Each subscription folds from seed
// again.
func Scan[T, R any](src Observable[T], seed R, fn func(R, T) (R, error)) Observable[R] {
	if src == nil {
		panic("rx: Scan requires a non-nil source")
	}
	if fn == nil {
		panic("rx: Scan requires a non-nil accumulator")
	}
	return &observable[R]{connect: func(ctx context.Context, sub *Subscription, dst Observer[R]) {
		acc := seed
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if err := guarded("scan", func() error {
					var err error
					acc, err = fn(acc, v)
					return err
				}); err != nil {
					dst.OnError(err)
					return
				}
				dst.OnNext(acc)
			},
			OnComplete: dst.OnComplete,
			OnError:    dst.OnError,
		})
	}}
}

// Buffer collects values into slices of size elements and emits each
// slice as it fills. A final partial slice is emitted before the
// terminal, on completion and on error alike, so buffered values are
// never silently dropped. Each emitted slice has its own backing array.
// Panics if size <= 0.
func Buffer[T any](src Observable[T], size int) Observable[[]T] {
	if src == nil {
		panic("rx: Buffer requires a non-nil source")
	}
	if size <= 0 {
		panic("rx: Buffer requires size > 0")
	}
	return &observable[[]T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[[]T]) {
		buf := make([]T, 0, size)
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				buf = append(buf, v)
				if len(buf) == size {
					out := buf
					buf = make([]T, 0, size)
					dst.OnNext(out)
				}
			},
			OnComplete: func() {
				if len(buf) > 0 {
					dst.OnNext(buf)
				}
				dst.OnComplete()
			},
			OnError: func(err error) {
				if len(buf) > 0 {
					dst.OnNext(buf)
				}
				dst.OnError(err)
			},
		})
	}}
}

// Reduce folds values through fn and emits only the final accumulator
// when the source completes. An empty source reduces to seed.
func Reduce[T, R any](src Observable[T], seed R, fn func(R, T) (R, error)) Observable[R] {
	if src == nil {
		panic("rx: Reduce requires a non-nil source")
	}
	if fn == nil {
		panic("rx: Reduce requires a non-nil accumulator")
	}
	return &observable[R]{connect: func(ctx context.Context, sub *Subscription, dst Observer[R]) {
		acc := seed
		connectTo(ctx, sub, src, Observer[T]{
			OnNext: func(v T) {
				if err := guarded("reduce", func() error {
					var err error
					acc, err = fn(acc, v)
					return err
				}); err != nil {
					dst.OnError(err)
				}
			},
			OnComplete: func() {
				dst.OnNext(acc)
				dst.OnComplete()
			},
			OnError: dst.OnError,
		})
	}}
}
