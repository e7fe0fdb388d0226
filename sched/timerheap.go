package sched

import (
	"container/heap"
	"sync/atomic"
	"time"
)

// timerTask is one unit of scheduled work, ordered by due time with the
// submission sequence as tie-break so tasks due at the same instant keep
// FIFO order.
type timerTask struct {
	due      time.Time
	seq      uint64
	fn       func()
	canceled atomic.Bool
	index    int
}

func (t *timerTask) cancel() { t.canceled.Store(true) }

// timerQueue is a min-heap of timer tasks. It is not safe for concurrent
// use; callers hold their own lock around every method.
type timerQueue struct {
	items []*timerTask
	seq   uint64
}

func (q *timerQueue) Len() int { return len(q.items) }

func (q *timerQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.due.Equal(b.due) {
		return a.seq < b.seq
	}
	return a.due.Before(b.due)
}

func (q *timerQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*timerTask)
	t.index = len(q.items)
	q.items = append(q.items, t)
}

func (q *timerQueue) Pop() any {
	old := q.items
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	q.items = old[:n-1]
	return t
}

func (q *timerQueue) add(due time.Time, fn func()) *timerTask {
	q.seq++
	t := &timerTask{due: due, seq: q.seq, fn: fn}
	heap.Push(q, t)
	return t
}

func (q *timerQueue) next() *timerTask {
	return heap.Pop(q).(*timerTask)
}

func (q *timerQueue) peek() (*timerTask, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}
