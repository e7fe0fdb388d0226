package rx

import (
	"context"
	"sync"
)

// fanIn serializes several upstream stages into one downstream observer.
// Stages register with enter and report completion with leave; the
// downstream completes once every registered stage has left, and the
// first error wins. Deliveries hold the mutex, so concurrent stages
// cannot interleave inside the downstream observer.
type fanIn[T any] struct {
	mu     sync.Mutex
	dst    Observer[T]
	active int
	done   bool
}

func newFanIn[T any](dst Observer[T], active int) *fanIn[T] {
	return &fanIn[T]{dst: dst, active: active}
}

func (f *fanIn[T]) enter() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return false
	}
	f.active++
	return true
}

func (f *fanIn[T]) leave() {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.active--
	fin := f.active == 0
	if fin {
		f.done = true
	}
	f.mu.Unlock()
	if fin {
		f.dst.OnComplete()
	}
}

func (f *fanIn[T]) next(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.dst.OnNext(v)
}

func (f *fanIn[T]) fail(err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.mu.Unlock()
	f.dst.OnError(err)
}

func (f *fanIn[T]) observer() Observer[T] {
	return Observer[T]{
		OnNext:     f.next,
		OnComplete: f.leave,
		OnError:    f.fail,
	}
}

// Merge interleaves the values of several sources into one stream in
// arrival order. Delivery is serialized, so sources running on different
// goroutines never interleave inside the observer. The merged stream
// completes after all sources complete; the first error terminates
// everything. Merge of no sources completes immediately.
func Merge[T any](sources ...Observable[T]) Observable[T] {
	for _, s := range sources {
		if s == nil {
			panic("rx: Merge requires non-nil sources")
		}
	}
	if len(sources) == 0 {
		return Empty[T]()
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		fan := newFanIn(dst, len(sources))
		for _, s := range sources {
			connectTo(ctx, sub, s, fan.observer())
		}
	}}
}

// Zip pairs the two sources by arrival index: the nth output combines
// the nth value of a with the nth value of b through fn. Values wait in
// per-source FIFO queues until their counterpart arrives. The output
// completes as soon as either source completes with its queue drained,
// since no further pair can form.
func Zip[A, B, R any](a Observable[A], b Observable[B], fn func(A, B) (R, error)) Observable[R] {
	if a == nil || b == nil {
		panic("rx: Zip requires non-nil sources")
	}
	if fn == nil {
		panic("rx: Zip requires a non-nil selector")
	}
	return &observable[R]{connect: func(ctx context.Context, sub *Subscription, dst Observer[R]) {
		st := &zipState[A, B]{}

		pump := func() {
			for !st.done && len(st.qa) > 0 && len(st.qb) > 0 {
				x, y := st.qa[0], st.qb[0]
				st.qa = st.qa[1:]
				st.qb = st.qb[1:]
				var r R
				if err := guarded("zip", func() error {
					var err error
					r, err = fn(x, y)
					return err
				}); err != nil {
					st.done = true
					dst.OnError(err)
					return
				}
				dst.OnNext(r)
			}
			if !st.done && ((st.aDone && len(st.qa) == 0) || (st.bDone && len(st.qb) == 0)) {
				st.done = true
				dst.OnComplete()
			}
		}
		fail := func(err error) {
			st.mu.Lock()
			defer st.mu.Unlock()
			if st.done {
				return
			}
			st.done = true
			dst.OnError(err)
		}

		connectTo(ctx, sub, a, Observer[A]{
			OnNext: func(v A) {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.qa = append(st.qa, v)
				pump()
			},
			OnComplete: func() {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.aDone = true
				pump()
			},
			OnError: fail,
		})
		connectTo(ctx, sub, b, Observer[B]{
			OnNext: func(v B) {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.qb = append(st.qb, v)
				pump()
			},
			OnComplete: func() {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.bDone = true
				pump()
			},
			OnError: fail,
		})
	}}
}

type zipState[A, B any] struct {
	mu           sync.Mutex
	qa           []A
	qb           []B
	aDone, bDone bool
	done         bool
}

// Pair is the element type produced by [ZipPair].
type Pair[A, B any] struct {
	First  A
	Second B
}

// ZipPair is [Zip] with the pair constructor as selector.
func ZipPair[A, B any](a Observable[A], b Observable[B]) Observable[Pair[A, B]] {
	return Zip(a, b, func(x A, y B) (Pair[A, B], error) {
		return Pair[A, B]{First: x, Second: y}, nil
	})
}

// CombineLatest emits a combination of the most recent value from each
// source every time either source emits, once both have emitted at
// least one value. The output completes when both sources complete, or
// as soon as one completes without ever emitting, since no combination
// can form after that.
func CombineLatest[A, B, R any](a Observable[A], b Observable[B], fn func(A, B) (R, error)) Observable[R] {
	if a == nil || b == nil {
		panic("rx: CombineLatest requires non-nil sources")
	}
	if fn == nil {
		panic("rx: CombineLatest requires a non-nil selector")
	}
	return &observable[R]{connect: func(ctx context.Context, sub *Subscription, dst Observer[R]) {
		st := &combineState[A, B]{}

		emit := func() {
			var r R
			if err := guarded("combine_latest", func() error {
				var err error
				r, err = fn(st.la, st.lb)
				return err
			}); err != nil {
				st.done = true
				dst.OnError(err)
				return
			}
			dst.OnNext(r)
		}

		connectTo(ctx, sub, a, Observer[A]{
			OnNext: func(v A) {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.la, st.laOK = v, true
				if st.lbOK {
					emit()
				}
			},
			OnComplete: func() {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.aDone = true
				if !st.laOK || st.bDone {
					st.done = true
					dst.OnComplete()
				}
			},
			OnError: func(err error) {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.done = true
				dst.OnError(err)
			},
		})
		connectTo(ctx, sub, b, Observer[B]{
			OnNext: func(v B) {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.lb, st.lbOK = v, true
				if st.laOK {
					emit()
				}
			},
			OnComplete: func() {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.bDone = true
				if !st.lbOK || st.aDone {
					st.done = true
					dst.OnComplete()
				}
			},
			OnError: func(err error) {
				st.mu.Lock()
				defer st.mu.Unlock()
				if st.done {
					return
				}
				st.done = true
				dst.OnError(err)
			},
		})
	}}
}

// combineState tracks the latest value seen on each side. The ok flags
// implement the two-state "no value yet / have latest" contract without
// a sentinel value.
type combineState[A, B any] struct {
	mu           sync.Mutex
	la           A
	lb           B
	laOK, lbOK   bool
	aDone, bDone bool
	done         bool
}
