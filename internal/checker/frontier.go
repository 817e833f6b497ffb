package checker

import (
	"sync"
	"sync/atomic"
)

// frontier holds node ids waiting to be expanded.
type frontier interface {
	push(id nodeID)
	// pop returns the next id. It reports false once the frontier is
	// closed, or once it is empty with no expansion in progress.
	pop() (nodeID, bool)
	// done marks the expansion of a popped id as finished.
	done()
	close()
	len() int
}

// fifoFrontier is the single-worker frontier. Popping an empty frontier
// ends the run, since no other worker can refill it.
type fifoFrontier struct {
	ids    []nodeID
	head   int
	closed atomic.Bool // set by context cancellation from another goroutine
}

func (f *fifoFrontier) push(id nodeID) {
	f.ids = append(f.ids, id)
}

func (f *fifoFrontier) pop() (nodeID, bool) {
	if f.closed.Load() || f.head == len(f.ids) {
		return 0, false
	}
	id := f.ids[f.head]
	f.head++
	// Release the consumed prefix once it dominates the slice.
	if f.head > 1024 && f.head*2 > len(f.ids) {
		f.ids = append([]nodeID(nil), f.ids[f.head:]...)
		f.head = 0
	}
	return id, true
}

func (f *fifoFrontier) done() {}

func (f *fifoFrontier) close() {
	f.closed.Store(true)
}

func (f *fifoFrontier) len() int {
	return len(f.ids) - f.head
}

// sharedFrontier is a blocking FIFO for N workers. The run is over when the
// queue is empty and no worker is mid-expansion, because only an expanding
// worker can push more ids.
type sharedFrontier struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ids    []nodeID
	active int
	closed bool
}

func newSharedFrontier() *sharedFrontier {
	f := &sharedFrontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *sharedFrontier) push(id nodeID) {
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	f.cond.Signal()
}

func (f *sharedFrontier) pop() (nodeID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.ids) == 0 && f.active > 0 && !f.closed {
		f.cond.Wait()
	}
	if f.closed || len(f.ids) == 0 {
		f.cond.Broadcast()
		return 0, false
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	f.active++
	return id, true
}

func (f *sharedFrontier) done() {
	f.mu.Lock()
	f.active--
	idle := f.active == 0 && len(f.ids) == 0
	f.mu.Unlock()
	if idle {
		f.cond.Broadcast()
	}
}

func (f *sharedFrontier) close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

func (f *sharedFrontier) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}
