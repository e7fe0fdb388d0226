package sched

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEventLoop_RunsTasksInOrder(t *testing.T) {
	l := NewEventLoop()
	defer l.Stop()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 0; i < 100; i++ {
		i := i
		l.Schedule(func() {
			mu.Lock()
			got = append(got, i)
			if len(got) == 100 {
				close(done)
			}
			mu.Unlock()
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, order not preserved", i, v)
		}
	}
}

func TestEventLoop_SingleGoroutine(t *testing.T) {
	l := NewEventLoop()
	defer l.Stop()

	var mu sync.Mutex
	var inTask int
	var overlapped bool
	done := make(chan struct{})

	for i := 0; i < 20; i++ {
		last := i == 19
		l.Schedule(func() {
			mu.Lock()
			inTask++
			if inTask > 1 {
				overlapped = true
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inTask--
			mu.Unlock()
			if last {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	if overlapped {
		t.Error("tasks overlapped; loop must be serial")
	}
}

func TestEventLoop_TimedOrdering(t *testing.T) {
	l := NewEventLoop()
	defer l.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	l.ScheduleAfter(60*time.Millisecond, func() {
		mu.Lock()
		order = append(order, 60)
		mu.Unlock()
		close(done)
	})
	l.ScheduleAfter(20*time.Millisecond, func() {
		mu.Lock()
		order = append(order, 20)
		mu.Unlock()
	})
	l.Schedule(func() {
		mu.Lock()
		order = append(order, 0)
		mu.Unlock()
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	mu.Lock()
	defer mu.Unlock()
	if want := []int{0, 20, 60}; !reflect.DeepEqual(order, want) {
		t.Errorf("got %v, want %v", order, want)
	}
}

func TestEventLoop_Cancel(t *testing.T) {
	l := NewEventLoop()
	defer l.Stop()

	var ran atomic.Bool
	cancel := l.ScheduleAfter(30*time.Millisecond, func() { ran.Store(true) })
	cancel()

	time.Sleep(80 * time.Millisecond)
	if ran.Load() {
		t.Error("canceled task ran")
	}
}

func TestEventLoop_PanicDoesNotKillLoop(t *testing.T) {
	l := NewEventLoop()
	defer l.Stop()

	l.Schedule(func() { panic("task failure") })

	done := make(chan struct{})
	l.Schedule(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop died after a task panic")
	}
}

func TestEventLoop_StopDiscardsFutureTasks(t *testing.T) {
	l := NewEventLoop()

	var ran atomic.Bool
	l.ScheduleAfter(time.Hour, func() { ran.Store(true) })

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if ran.Load() {
		t.Error("far-future task ran during Stop")
	}
}

func TestEventLoop_ScheduleAfterStopIsDropped(t *testing.T) {
	l := NewEventLoop()
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	var ran atomic.Bool
	l.Schedule(func() { ran.Store(true) })

	time.Sleep(20 * time.Millisecond)
	if ran.Load() {
		t.Error("task ran on a stopped loop")
	}
}

func TestEventLoop_StopIdempotent(t *testing.T) {
	l := NewEventLoop()
	if err := l.Stop(); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}
