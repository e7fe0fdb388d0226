package rx

import (
	"context"
	"errors"
	"sync"

	"github.com/cenkalti/backoff/v4"

	"github.com/reactkit/rx/sched"
)

// Retry resubscribes the source after an error, up to attempts extra
// times, and forwards the error once the budget is spent. Values emitted
// before each failure still reach the observer; every attempt starts the
// source's operator state from scratch. Panics if attempts is negative.
func Retry[T any](src Observable[T], attempts int) Observable[T] {
	if src == nil {
		panic("rx: Retry requires a non-nil source")
	}
	if attempts < 0 {
		panic("rx: Retry requires non-negative attempts")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		var attempt func(remaining int)
		attempt = func(remaining int) {
			connectTo(ctx, sub, src, Observer[T]{
				OnNext:     dst.OnNext,
				OnComplete: dst.OnComplete,
				OnError: func(err error) {
					if remaining <= 0 || sub.Closed() {
						dst.OnError(err)
						return
					}
					attempt(remaining - 1)
				},
			})
		}
		attempt(attempts)
	}}
}

// BackoffRetry resubscribes the source after an error, waiting out the
// policy's next interval on s before each attempt. policy is a factory
// so every subscription gets its own backoff state. Retrying stops and
// the error is forwarded when the policy returns [backoff.Stop]; an
// error wrapped in [backoff.Permanent] stops immediately and is
// forwarded unwrapped.
func BackoffRetry[T any](src Observable[T], policy func() backoff.BackOff, s sched.Scheduler) Observable[T] {
	if src == nil {
		panic("rx: BackoffRetry requires a non-nil source")
	}
	if policy == nil {
		panic("rx: BackoffRetry requires a non-nil policy factory")
	}
	if s == nil {
		panic("rx: BackoffRetry requires a non-nil scheduler")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		bo := policy()
		if bo == nil {
			dst.OnError(&OpError{Op: "backoff_retry", Err: errors.New("policy returned nil")})
			return
		}
		var pending retryTimer
		var attempt func()
		attempt = func() {
			connectTo(ctx, sub, src, Observer[T]{
				OnNext:     dst.OnNext,
				OnComplete: dst.OnComplete,
				OnError: func(err error) {
					var perm *backoff.PermanentError
					if errors.As(err, &perm) {
						dst.OnError(perm.Unwrap())
						return
					}
					d := bo.NextBackOff()
					if d == backoff.Stop || sub.Closed() {
						dst.OnError(err)
						return
					}
					pending.rearm(s.ScheduleAfter(d, func() {
						if !sub.Closed() {
							attempt()
						}
					}))
				},
			})
		}
		sub.AddTeardown(pending.stop)
		attempt()
	}}
}

// retryTimer holds the cancel handle for the wait between attempts so
// teardown can revoke a sleeping retry.
type retryTimer struct {
	mu      sync.Mutex
	cancel  sched.CancelFunc
	stopped bool
}

func (t *retryTimer) rearm(c sched.CancelFunc) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		c()
		return
	}
	t.cancel = c
	t.mu.Unlock()
}

func (t *retryTimer) stop() {
	t.mu.Lock()
	t.stopped = true
	c := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if c != nil {
		c()
	}
}

// Catch hands the error to handler and continues with the observable it
// returns, so a failed stream can be replaced instead of terminated.
// Returning nil declines: the original error is forwarded. Values
// emitted before the failure are unaffected.
func Catch[T any](src Observable[T], handler func(error) Observable[T]) Observable[T] {
	if src == nil {
		panic("rx: Catch requires a non-nil source")
	}
	if handler == nil {
		panic("rx: Catch requires a non-nil handler")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		connectTo(ctx, sub, src, Observer[T]{
			OnNext:     dst.OnNext,
			OnComplete: dst.OnComplete,
			OnError: func(err error) {
				var next Observable[T]
				if herr := guarded("catch", func() error {
					next = handler(err)
					return nil
				}); herr != nil {
					dst.OnError(herr)
					return
				}
				if next == nil {
					dst.OnError(err)
					return
				}
				connectTo(ctx, sub, next, dst)
			},
		})
	}}
}

// OnErrorReturn replaces an error with one fallback value computed from
// it, then completes.
func OnErrorReturn[T any](src Observable[T], fn func(error) T) Observable[T] {
	if src == nil {
		panic("rx: OnErrorReturn requires a non-nil source")
	}
	if fn == nil {
		panic("rx: OnErrorReturn requires a non-nil fallback")
	}
	return &observable[T]{connect: func(ctx context.Context, sub *Subscription, dst Observer[T]) {
		connectTo(ctx, sub, src, Observer[T]{
			OnNext:     dst.OnNext,
			OnComplete: dst.OnComplete,
			OnError: func(err error) {
				var v T
				if ferr := guarded("on_error_return", func() error {
					v = fn(err)
					return nil
				}); ferr != nil {
					dst.OnError(ferr)
					return
				}
				dst.OnNext(v)
				dst.OnComplete()
			},
		})
	}}
}
