package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrPoolClosed is returned by [Workers.Submit] when the pool has been
// closed.
var ErrPoolClosed = errors.New("sched: worker pool is closed")

// Workers is a fixed-size worker pool scheduler. Tasks are submitted via
// Submit or the [Scheduler] methods and processed by n goroutines.
//
// With more than one worker, tasks run concurrently and cross-task order
// is not guaranteed; pipelines that need ordered delivery marshal through
// an observe-on queue or use a serial scheduler instead.
type Workers struct {
	tasks  chan func() error
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	errMu sync.Mutex
	errs  []error

	// Observability counters.
	submitted atomic.Int64
	completed atomic.Int64
	panicked  atomic.Int64
	inFlight  atomic.Int64
	workers   int
}

// PoolStats provides a point-in-time snapshot of pool activity.
type PoolStats struct {
	Submitted  int64 // total tasks submitted
	Completed  int64 // tasks finished (success + panic)
	Panicked   int64 // tasks that panicked
	InFlight   int64 // tasks currently executing
	QueueDepth int   // tasks waiting in the queue
	Workers    int   // worker count (fixed at creation)
}

// PoolOption configures a [Workers] pool.
type PoolOption func(*poolConfig)

type poolConfig struct {
	queueSize       int
	onMetrics       func(PoolStats)
	metricsInterval time.Duration
}

// WithQueueSize sets the task queue buffer size. Default is n * 2.
func WithQueueSize(size int) PoolOption {
	return func(c *poolConfig) {
		if size < 0 {
			panic("sched: WithQueueSize requires non-negative size")
		}
		c.queueSize = size
	}
}

// WithPoolMetrics registers a periodic pool metrics callback that fires
// every interval. The callback receives a snapshot of current pool counters.
//
// Panics if interval <= 0 or fn is nil.
func WithPoolMetrics(interval time.Duration, fn func(PoolStats)) PoolOption {
	if interval <= 0 {
		panic("sched: WithPoolMetrics requires interval > 0")
	}
	if fn == nil {
		panic("sched: WithPoolMetrics requires non-nil callback")
	}
	return func(c *poolConfig) {
		c.onMetrics = fn
		c.metricsInterval = interval
	}
}

// NewWorkers creates a pool with n worker goroutines. Workers start
// immediately and process tasks until [Workers.Close] is called or ctx
// is canceled. Panics if n <= 0.
func NewWorkers(ctx context.Context, n int, opts ...PoolOption) *Workers {
	if n <= 0 {
		panic("sched: NewWorkers requires n > 0")
	}

	cfg := poolConfig{queueSize: n * 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Workers{
		tasks:   make(chan func() error, cfg.queueSize),
		ctx:     ctx,
		cancel:  cancel,
		workers: n,
	}

	w.wg.Add(n)
	for i := 0; i < n; i++ {
		go w.worker()
	}

	// Start metrics ticker if configured.
	if cfg.onMetrics != nil {
		go func() {
			ticker := time.NewTicker(cfg.metricsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if w.closed.Load() {
						return
					}
					cfg.onMetrics(w.Stats())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return w
}

func (w *Workers) worker() {
	defer w.wg.Done()
	for fn := range w.tasks {
		w.runTask(fn)
	}
}

func (w *Workers) runTask(fn func() error) {
	w.inFlight.Add(1)
	defer func() {
		w.inFlight.Add(-1)
		w.completed.Add(1)
	}()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.panicked.Add(1)
				logrus.WithFields(logrus.Fields{
					"scheduler": "workers",
					"panic":     r,
				}).Error("sched: task panicked")
				err = fmt.Errorf("sched: task panicked: %v", r)
			}
		}()
		err = fn()
	}()
	if err != nil {
		w.errMu.Lock()
		w.errs = append(w.errs, err)
		w.errMu.Unlock()
	}
}

// Stats returns a point-in-time snapshot of pool activity.
// Safe to call concurrently.
func (w *Workers) Stats() PoolStats {
	return PoolStats{
		Submitted:  w.submitted.Load(),
		Completed:  w.completed.Load(),
		Panicked:   w.panicked.Load(),
		InFlight:   w.inFlight.Load(),
		QueueDepth: len(w.tasks),
		Workers:    w.workers,
	}
}

// Submit submits a task to the pool. It blocks if the queue is full.
// Returns [ErrPoolClosed] if the pool has been closed.
// Returns ctx.Err() if the pool's context is cancelled.
func (w *Workers) Submit(fn func() error) (err error) {
	if w.closed.Load() {
		return ErrPoolClosed
	}

	// Guard against the race between the closed check above and
	// Close() closing the tasks channel. If Close fires between the
	// check and the send, the send panics; we recover and return
	// ErrPoolClosed.
	defer func() {
		if r := recover(); r != nil {
			err = ErrPoolClosed
		}
	}()

	select {
	case w.tasks <- fn:
		w.submitted.Add(1)
		return nil
	case <-w.ctx.Done():
		return w.ctx.Err()
	}
}

// TrySubmit attempts to submit without blocking.
// Returns false if the queue is full or the pool is closed.
func (w *Workers) TrySubmit(fn func() error) (submitted bool) {
	if w.closed.Load() {
		return false
	}

	// Same TOCTOU guard as Submit.
	defer func() {
		if r := recover(); r != nil {
			submitted = false
		}
	}()

	select {
	case w.tasks <- fn:
		w.submitted.Add(1)
		return true
	default:
		return false
	}
}

// Now returns the current wall-clock time.
func (w *Workers) Now() time.Time { return time.Now() }

// Schedule submits task to the pool, blocking if the queue is full. The
// returned CancelFunc marks the task so an unstarted task becomes a no-op.
// Tasks scheduled after Close are dropped.
func (w *Workers) Schedule(task func()) CancelFunc {
	var canceled atomic.Bool
	err := w.Submit(func() error {
		if canceled.Load() {
			return nil
		}
		task()
		return nil
	})
	if err != nil {
		return noop
	}
	return func() { canceled.Store(true) }
}

// ScheduleAfter submits task once d has elapsed. The timer fires on its
// own goroutine and hands the task to the pool.
func (w *Workers) ScheduleAfter(d time.Duration, task func()) CancelFunc {
	var canceled atomic.Bool
	timer := time.AfterFunc(d, func() {
		if canceled.Load() {
			return
		}
		_ = w.Submit(func() error {
			if canceled.Load() {
				return nil
			}
			task()
			return nil
		})
	})
	return func() {
		canceled.Store(true)
		timer.Stop()
	}
}

// Close stops accepting new tasks and waits for in-flight tasks to finish.
// Returns the joined errors from all failed tasks.
// Safe to call multiple times; subsequent calls return the same result.
func (w *Workers) Close() error {
	if w.closed.CompareAndSwap(false, true) {
		close(w.tasks)
	}
	w.wg.Wait()
	w.cancel()

	w.errMu.Lock()
	defer w.errMu.Unlock()
	return errors.Join(w.errs...)
}
