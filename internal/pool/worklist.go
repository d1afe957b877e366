// Package pool implements the bounded-concurrency fetch scheduler.
package pool

import (
	"sync"

	"github.com/sitefetch/sitefetch/internal/sitefetch"
)

// Worklist is a growable, concurrency-safe FIFO queue of pending tasks.
// It tracks in-flight consumers so drain detection survives the window
// where a worker has dequeued a sitemap task but not yet enqueued the
// tasks it discovers: the list only counts as done when it is empty AND
// no popped task is still being processed.
type Worklist struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []sitefetch.Task
	inflight int
	closed   bool
}

// NewWorklist returns an empty, open worklist.
func NewWorklist() *Worklist {
	w := &Worklist{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Push appends a task. It reports false once the worklist has closed
// (drained or cancelled), in which case the task is dropped.
func (w *Worklist) Push(t sitefetch.Task) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	w.items = append(w.items, t)
	w.cond.Signal()
	return true
}

// Pop blocks until a task is available, returning false when the worklist
// drains or closes. The caller must call Finish exactly once for every
// successful Pop, after performing any re-enqueues, so the in-flight
// accounting stays correct.
func (w *Worklist) Pop() (sitefetch.Task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		if w.closed {
			return sitefetch.Task{}, false
		}
		if len(w.items) > 0 {
			t := w.items[0]
			w.items = w.items[1:]
			w.inflight++
			return t, true
		}
		if w.inflight == 0 {
			// Empty with no producers left: the run is complete.
			w.closed = true
			w.cond.Broadcast()
			return sitefetch.Task{}, false
		}
		w.cond.Wait()
	}
}

// Finish marks a previously popped task complete.
func (w *Worklist) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inflight--
	// Waiters must recheck: this may have been the last producer.
	w.cond.Broadcast()
}

// Close drops all queued tasks and wakes every blocked Pop. In-flight
// tasks are unaffected; their Finish calls remain valid.
func (w *Worklist) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.items = nil
	w.cond.Broadcast()
}

// Pending returns the number of queued tasks. Intended for logging.
func (w *Worklist) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}
