package bus

import (
	"context"
	"sync"

	"venuebridge/internal/model"
	"venuebridge/pkg/exception"
)

// TickQueue is a bounded hand-off queue for a single pull consumer. Push never
// blocks: when the queue is full the oldest snapshot is dropped.
type TickQueue struct {
	mu     sync.Mutex
	ch     chan model.TickSnapshot
	closed bool
}

// NewTickQueue allocates a queue with the given capacity.
func NewTickQueue(capacity int) *TickQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &TickQueue{ch: make(chan model.TickSnapshot, capacity)}
}

// Push enqueues a snapshot and reports whether an older one was dropped to make room.
func (q *TickQueue) Push(t model.TickSnapshot) (dropped bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false, exception.ErrQueueClosed
	}
	for {
		select {
		case q.ch <- t:
			return dropped, nil
		default:
		}
		select {
		case <-q.ch:
			dropped = true
		default:
		}
	}
}

// Next blocks until a snapshot is available, the queue is closed and drained,
// or ctx is done.
func (q *TickQueue) Next(ctx context.Context) (model.TickSnapshot, error) {
	select {
	case t, ok := <-q.ch:
		if !ok {
			return model.TickSnapshot{}, exception.ErrQueueClosed
		}
		return t, nil
	case <-ctx.Done():
		return model.TickSnapshot{}, ctx.Err()
	}
}

// Len returns the number of unread snapshots.
func (q *TickQueue) Len() int {
	return len(q.ch)
}

// Close stops the queue from accepting snapshots. Unread snapshots stay readable.
func (q *TickQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
