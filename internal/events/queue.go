package events

import (
	"context"
	"sync"

	"github.com/cruciblehq/appdrawer/internal/protocol"
)

// Unbounded FIFO of events for one window. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	items  []protocol.Event
	signal chan struct{}
}

// Creates an empty queue.
func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Appends ev to the tail and wakes a blocked [Queue.Pop].
func (q *Queue) Push(ev protocol.Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	q.wake()
}

func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Appends ev only if ok reports true. ok runs under the queue lock, so a
// [Queue.Reset] that follows a state change ok observes cannot miss ev.
func (q *Queue) PushIf(ev protocol.Event, ok func() bool) bool {
	q.mu.Lock()
	if !ok() {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	q.wake()
	return true
}

// Removes and returns the oldest event, waiting until one is available or
// ctx is done.
func (q *Queue) Pop(ctx context.Context) (protocol.Event, error) {
	for {
		if ev, ok := q.TryPop(); ok {
			return ev, nil
		}
		select {
		case <-q.signal:
		case <-ctx.Done():
			return protocol.Event{}, ctx.Err()
		}
	}
}

// Removes and returns the oldest event without waiting.
func (q *Queue) TryPop() (protocol.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return protocol.Event{}, false
	}
	ev := q.items[0]
	q.items[0] = protocol.Event{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return ev, true
}

// Number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Discards every queued event and returns how many were dropped.
func (q *Queue) Reset() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	return n
}
