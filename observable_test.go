package rx

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// collector gathers every signal an observer sees, in order.
type collector[T any] struct {
	values   []T
	complete int
	errs     []error
}

func (c *collector[T]) observer() Observer[T] {
	return Observer[T]{
		OnNext:     func(v T) { c.values = append(c.values, v) },
		OnComplete: func() { c.complete++ },
		OnError:    func(err error) { c.errs = append(c.errs, err) },
	}
}

func TestCreate_EmitsThenCompletes(t *testing.T) {
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		e.Next(1)
		e.Next(2)
		e.Complete()
	})

	var c collector[int]
	sub := src.Subscribe(context.Background(), c.observer())

	if want := []int{1, 2}; !reflect.DeepEqual(c.values, want) {
		t.Errorf("got %v, want %v", c.values, want)
	}
	if c.complete != 1 {
		t.Errorf("got %d completions, want 1", c.complete)
	}
	if len(c.errs) != 0 {
		t.Errorf("got errors %v, want none", c.errs)
	}
	if !sub.Closed() {
		t.Error("subscription not closed after synchronous completion")
	}
	if sub.Err() != nil {
		t.Errorf("got Err %v, want nil", sub.Err())
	}
}

func TestCreate_SignalsAfterTerminalDropped(t *testing.T) {
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		e.Next(1)
		e.Complete()
		e.Next(2)
		e.Error(errors.New("late"))
		e.Complete()
	})

	var c collector[int]
	src.Subscribe(context.Background(), c.observer())

	if want := []int{1}; !reflect.DeepEqual(c.values, want) {
		t.Errorf("got %v, want %v", c.values, want)
	}
	if c.complete != 1 {
		t.Errorf("got %d completions, want exactly 1", c.complete)
	}
	if len(c.errs) != 0 {
		t.Errorf("got errors %v after completion, want none", c.errs)
	}
}

func TestCreate_ErrorIsTerminal(t *testing.T) {
	boom := errors.New("boom")
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		e.Next(1)
		e.Error(boom)
		e.Next(2)
	})

	var c collector[int]
	sub := src.Subscribe(context.Background(), c.observer())

	if want := []int{1}; !reflect.DeepEqual(c.values, want) {
		t.Errorf("got %v, want %v", c.values, want)
	}
	if len(c.errs) != 1 || !errors.Is(c.errs[0], boom) {
		t.Errorf("got errs %v, want exactly [boom]", c.errs)
	}
	if c.complete != 0 {
		t.Error("completion delivered after error")
	}
	if !errors.Is(sub.Err(), boom) {
		t.Errorf("sub.Err() = %v, want boom", sub.Err())
	}
}

func TestEmitter_NextFalseAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stoppedAt := 0
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		for i := 1; ; i++ {
			if !e.Next(i) {
				stoppedAt = i
				return
			}
			if i == 3 {
				cancel()
				<-e.Canceled()
			}
		}
	})

	var c collector[int]
	sub := src.Subscribe(ctx, c.observer())

	if want := []int{1, 2, 3}; !reflect.DeepEqual(c.values, want) {
		t.Errorf("got %v, want %v", c.values, want)
	}
	if stoppedAt != 4 {
		t.Errorf("producer stopped at %d, want 4 (first Next after cancel)", stoppedAt)
	}
	if c.complete != 0 || len(c.errs) != 0 {
		t.Error("cancellation must not synthesize a terminal signal")
	}
	if !errors.Is(sub.Err(), context.Canceled) {
		t.Errorf("sub.Err() = %v, want context.Canceled", sub.Err())
	}
}

func TestSubscribe_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		ran = true
		e.Complete()
	})

	var c collector[int]
	sub := src.Subscribe(ctx, c.observer())

	if ran {
		t.Error("producer ran despite canceled context")
	}
	if len(c.values) != 0 || c.complete != 0 {
		t.Errorf("got signals %v/%d on canceled context", c.values, c.complete)
	}
	if !sub.Closed() {
		t.Error("subscription not closed")
	}
	if !errors.Is(sub.Err(), context.Canceled) {
		t.Errorf("sub.Err() = %v, want context.Canceled", sub.Err())
	}
}

func TestSubscribe_ContextCancelStopsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := Create(func(ctx context.Context, e *Emitter[int]) {
		for i := 0; ; i++ {
			if !e.Next(i) {
				return
			}
		}
	})

	seen := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		var fired bool
		src.Subscribe(ctx, Observer[int]{
			OnNext: func(v int) {
				if !fired {
					fired = true
					seen <- v
					cancel()
				}
			},
		})
	}()

	<-seen
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not stop after context cancel")
	}
}

func TestSubscription_TeardownLIFO(t *testing.T) {
	sub := newSubscription(context.Background())
	var order []int
	sub.AddTeardown(func() { order = append(order, 1) })
	sub.AddTeardown(func() { order = append(order, 2) })
	sub.AddTeardown(func() { order = append(order, 3) })

	sub.Unsubscribe()
	sub.Unsubscribe()

	if want := []int{3, 2, 1}; !reflect.DeepEqual(order, want) {
		t.Errorf("got teardown order %v, want %v", order, want)
	}
}

func TestSubscription_TeardownAfterCloseRunsNow(t *testing.T) {
	sub := newSubscription(context.Background())
	sub.Unsubscribe()

	ran := false
	sub.AddTeardown(func() { ran = true })
	if !ran {
		t.Error("teardown registered after close did not run immediately")
	}
}

func TestSubscription_TeardownPanicRunsRemaining(t *testing.T) {
	sub := newSubscription(context.Background())
	var order []int
	sub.AddTeardown(func() { order = append(order, 1) })
	sub.AddTeardown(func() { panic("teardown failed") })
	sub.AddTeardown(func() { order = append(order, 3) })

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("teardown panic was swallowed")
		}
		pe, ok := r.(*PanicError)
		if !ok {
			t.Fatalf("re-raised %T, want *PanicError", r)
		}
		if pe.Value != "teardown failed" {
			t.Errorf("got panic value %v, want original", pe.Value)
		}
		if want := []int{3, 1}; !reflect.DeepEqual(order, want) {
			t.Errorf("got teardown order %v, want %v (remaining ran)", order, want)
		}
	}()
	sub.Unsubscribe()
}

func TestForeignObservable_Bridged(t *testing.T) {
	// An Observable implemented outside the package, with deliberately
	// broken grammar: it keeps signaling after completion.
	unsubscribed := false
	foreign := ObservableFunc[int](func(ctx context.Context, obs Observer[int]) *Subscription {
		s := newSubscription(ctx)
		s.AddTeardown(func() { unsubscribed = true })
		obs.OnNext(1)
		obs.OnComplete()
		obs.OnNext(2)
		obs.OnComplete()
		return s
	})

	var c collector[int]
	Where[int](foreign, func(int) bool { return true }).
		Subscribe(context.Background(), c.observer())

	if want := []int{1}; !reflect.DeepEqual(c.values, want) {
		t.Errorf("got %v, want %v (post-terminal signals must be dropped)", c.values, want)
	}
	if c.complete != 1 {
		t.Errorf("got %d completions, want 1", c.complete)
	}
	if !unsubscribed {
		t.Error("foreign subscription not released on teardown")
	}
}
