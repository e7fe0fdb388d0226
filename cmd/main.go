package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/reactkit/rx"
	"github.com/reactkit/rx/sched"
)

type reading struct {
	Sensor string
	Temp   int
}

func main() {
	loop := sched.NewEventLoop()

	readings := rx.NewSubject[reading]()

	now := time.Now()

	// Deliver on the event loop, drop noise, alert on hot sensors.
	alerts := rx.Select(
		rx.DistinctUntilChangedFunc(
			rx.Where(
				rx.ObserveOn[reading](readings, loop),
				func(r reading) bool { return r.Temp > 75 },
			),
			func(a, b reading) bool { return a.Sensor == b.Sensor && a.Temp == b.Temp },
		),
		func(r reading) (string, error) {
			return fmt.Sprintf("%s running hot: %d°", r.Sensor, r.Temp), nil
		},
	)

	done := make(chan struct{})
	alerts.Subscribe(context.Background(), rx.Observer[string]{
		OnNext:     func(msg string) { fmt.Println("ALERT:", msg) },
		OnComplete: func() { close(done) },
		OnError: func(err error) {
			fmt.Println("pipeline failed:", err)
			close(done)
		},
	})

	sensors := []string{"cpu0", "cpu1", "ambient"}
	for i := 0; i < 40; i++ {
		readings.Next(reading{
			Sensor: sensors[i%len(sensors)],
			Temp:   60 + rand.Intn(30),
		})
		time.Sleep(5 * time.Millisecond)
	}
	readings.Complete()

	<-done
	if err := loop.Stop(); err != nil {
		fmt.Println("loop stop:", err)
	}

	fmt.Println("Elapsed time:", time.Since(now))
}

// func main() {
// 	got, err := rx.From(rx.Range(1, 100)).
// 		Where(func(v int) bool { return v%7 == 0 }).
// 		Take(5).
// 		ToSlice(context.Background())
// 	fmt.Println(got, err)
// }
