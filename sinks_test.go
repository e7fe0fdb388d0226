package rx

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestToSlice_PartialOnError(t *testing.T) {
	boom := errors.New("boom")
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		e.Next(1)
		e.Next(2)
		e.Error(boom)
	})

	got, err := ToSlice(context.Background(), src)
	if !errors.Is(err, boom) {
		t.Fatalf("got err %v, want boom", err)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want the values before the failure", got)
	}
}

func TestToSlice_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan int)

	errc := make(chan error, 1)
	go func() {
		_, err := ToSlice(ctx, FromChan(ch))
		errc <- err
	}()

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ToSlice did not return after cancel")
	}
}

func TestForEach(t *testing.T) {
	var got []int
	if err := ForEach(context.Background(), Just(1, 2, 3), func(v int) {
		got = append(got, v)
	}); err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if want := []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestForEach_Error(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(context.Background(), Throw[int](boom), func(int) {})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}

func TestFirst(t *testing.T) {
	produced := 0
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		for i := 1; i <= 10; i++ {
			produced = i
			if !e.Next(i * 11) {
				return
			}
		}
		e.Complete()
	})

	got, err := First(context.Background(), src)
	if err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if got != 11 {
		t.Errorf("got %d, want 11", got)
	}
	if produced != 1 {
		t.Errorf("producer reached %d, want canceled after the first value", produced)
	}
}

func TestFirst_Empty(t *testing.T) {
	_, err := First(context.Background(), Empty[int]())
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("got %v, want ErrEmpty", err)
	}
}

func TestFirst_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := First(context.Background(), Throw[int](boom))
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}

func TestCount(t *testing.T) {
	n, err := Count(context.Background(), Range(0, 57))
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 57 {
		t.Errorf("got %d, want 57", n)
	}
}

func TestCount_Empty(t *testing.T) {
	n, err := Count(context.Background(), Empty[string]())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d, want 0", n)
	}
}

func TestToChan(t *testing.T) {
	out, errc := ToChan(context.Background(), Just(1, 2, 3))

	var got []int
	for v := range out {
		got = append(got, v)
	}
	if want := []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if err := <-errc; err != nil {
		t.Errorf("got err %v, want nil", err)
	}
}

func TestToChan_Error(t *testing.T) {
	boom := errors.New("boom")
	src := Create(func(ctx context.Context, e *Emitter[int]) {
		e.Next(1)
		e.Error(boom)
	})

	out, errc := ToChan(context.Background(), src)

	var got []int
	for v := range out {
		got = append(got, v)
	}
	if want := []int{1}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if err := <-errc; !errors.Is(err, boom) {
		t.Errorf("got err %v, want boom", err)
	}
}
