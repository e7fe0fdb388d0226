package rx

import (
	"context"
	"sync"
)

// ToSlice subscribes, collects every value, and blocks until the stream
// terminates or ctx is canceled. Like an io.Reader, it returns what it
// gathered alongside any error, so a failed stream still yields its
// partial output.
func ToSlice[T any](ctx context.Context, src Observable[T]) ([]T, error) {
	if src == nil {
		panic("rx: ToSlice requires a non-nil source")
	}
	var mu sync.Mutex
	var out []T
	sub := src.Subscribe(ctx, Observer[T]{
		OnNext: func(v T) {
			mu.Lock()
			out = append(out, v)
			mu.Unlock()
		},
	})
	<-sub.Done()
	mu.Lock()
	defer mu.Unlock()
	return out, sub.Err()
}

// ForEach subscribes with fn as the value handler and blocks until the
// stream terminates or ctx is canceled, returning the terminal error if
// there was one.
func ForEach[T any](ctx context.Context, src Observable[T], fn func(T)) error {
	if src == nil {
		panic("rx: ForEach requires a non-nil source")
	}
	if fn == nil {
		panic("rx: ForEach requires a non-nil callback")
	}
	sub := src.Subscribe(ctx, Observer[T]{OnNext: fn})
	<-sub.Done()
	return sub.Err()
}

// First blocks for the stream's first value, cancels the rest, and
// returns it. Returns [ErrEmpty] if the stream completes without
// emitting.
func First[T any](ctx context.Context, src Observable[T]) (T, error) {
	if src == nil {
		panic("rx: First requires a non-nil source")
	}
	var zero T
	vals, err := ToSlice(ctx, Take(src, 1))
	if err != nil {
		return zero, err
	}
	if len(vals) == 0 {
		return zero, ErrEmpty
	}
	return vals[0], nil
}

// Count blocks until the stream terminates and reports how many values
// it emitted. On error the count covers the values seen before it.
func Count[T any](ctx context.Context, src Observable[T]) (int, error) {
	if src == nil {
		panic("rx: Count requires a non-nil source")
	}
	var mu sync.Mutex
	n := 0
	err := ForEach(ctx, src, func(T) {
		mu.Lock()
		n++
		mu.Unlock()
	})
	mu.Lock()
	defer mu.Unlock()
	return n, err
}

// ToChan bridges the stream into channels: values arrive on the first
// channel and a terminal error, if any, on the second. Both channels
// close once the stream ends. The bridge goroutine applies backpressure
// by blocking the pipeline until the value channel is received from, and
// lets go when ctx is canceled.
func ToChan[T any](ctx context.Context, src Observable[T]) (<-chan T, <-chan error) {
	if src == nil {
		panic("rx: ToChan requires a non-nil source")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	out := make(chan T)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(out)
		err := ForEach(ctx, src, func(v T) {
			select {
			case out <- v:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errc <- err
		}
	}()
	return out, errc
}
