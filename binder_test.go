package rx

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/reactkit/rx/sched"
)

func TestBinder_Chain(t *testing.T) {
	got, err := From(Range(1, 20)).
		Where(func(v int) bool { return v%2 == 0 }).
		Skip(2).
		Take(3).
		ToSlice(context.Background())
	if err != nil {
		t.Fatalf("ToSlice failed: %v", err)
	}
	if want := []int{6, 8, 10}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBinder_Observable(t *testing.T) {
	b := From(Just(1, 2, 3)).Where(func(v int) bool { return v > 1 })

	// The binder is only sugar: unwrapping must hand back a plain stream.
	got, err := ToSlice(context.Background(), b.Observable())
	if err != nil {
		t.Fatalf("ToSlice failed: %v", err)
	}
	if want := []int{2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBinder_Reusable(t *testing.T) {
	base := From(Just(1, 2, 3, 4))
	evens := base.Where(func(v int) bool { return v%2 == 0 })
	first := base.Take(1)

	// Deriving from a binder must not mutate it.
	e, err := evens.ToSlice(context.Background())
	if err != nil {
		t.Fatalf("ToSlice failed: %v", err)
	}
	f, err := first.ToSlice(context.Background())
	if err != nil {
		t.Fatalf("ToSlice failed: %v", err)
	}
	all, err := base.ToSlice(context.Background())
	if err != nil {
		t.Fatalf("ToSlice failed: %v", err)
	}

	if want := []int{2, 4}; !reflect.DeepEqual(e, want) {
		t.Errorf("evens got %v, want %v", e, want)
	}
	if want := []int{1}; !reflect.DeepEqual(f, want) {
		t.Errorf("first got %v, want %v", f, want)
	}
	if want := []int{1, 2, 3, 4}; !reflect.DeepEqual(all, want) {
		t.Errorf("base got %v, want %v", all, want)
	}
}

func TestBinder_MergeWith(t *testing.T) {
	got, err := From(Just(1, 2)).MergeWith(Just(3), Just(4)).ToSlice(context.Background())
	if err != nil {
		t.Fatalf("ToSlice failed: %v", err)
	}
	if want := []int{1, 2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBinder_DistinctUntilChangedFunc(t *testing.T) {
	got, err := From(Just(1, 1, 2, 2, 1)).
		DistinctUntilChangedFunc(func(a, b int) bool { return a == b }).
		ToSlice(context.Background())
	if err != nil {
		t.Fatalf("ToSlice failed: %v", err)
	}
	if want := []int{1, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBinder_Timing(t *testing.T) {
	v := sched.NewVirtual(epoch)
	s := NewSubject[int]()

	var c collector[int]
	From[int](s).
		Delay(20*time.Millisecond, v).
		ObserveOn(v).
		Subscribe(context.Background(), c.observer())

	s.Next(1)
	s.Complete()
	v.AdvanceBy(time.Second)

	if want := []int{1}; !reflect.DeepEqual(c.values, want) {
		t.Errorf("got %v, want %v", c.values, want)
	}
	if c.complete != 1 {
		t.Errorf("got %d completions, want 1", c.complete)
	}
}

func TestBinder_ErrorHandling(t *testing.T) {
	boom := errors.New("boom")
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		e.Next(1)
		e.Error(boom)
	})

	got, err := From(src).
		Catch(func(error) Observable[int] { return Just(2) }).
		ToSlice(context.Background())
	if err != nil {
		t.Fatalf("ToSlice failed: %v", err)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBinder_Terminals(t *testing.T) {
	ctx := context.Background()
	b := From(Just(5, 6, 7))

	first, err := b.First(ctx)
	if err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if first != 5 {
		t.Errorf("First = %d, want 5", first)
	}

	n, err := b.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	var seen []int
	if err := b.ForEach(ctx, func(v int) { seen = append(seen, v) }); err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if want := []int{5, 6, 7}; !reflect.DeepEqual(seen, want) {
		t.Errorf("ForEach saw %v, want %v", seen, want)
	}
}

func TestFrom_NilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("From(nil) did not panic")
		}
	}()
	From[int](nil)
}
