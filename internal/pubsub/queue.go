package pubsub

import "sync"

// queue is a Channel whose Send never blocks: messages wait in an unbounded buffer until the receiver takes them.
// After Close, anything already queued is still delivered before the Receive channel is closed.
type queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	wake   chan struct{}
	out    chan T
	done   chan struct{}
}

// NewQueue creates a Channel with an unbounded buffer, for subscribers that must never hold up their publisher.
func NewQueue[T any]() Channel[T] {
	q := &queue[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
		done: make(chan struct{}),
	}
	go q.pump()
	return q
}

func (q *queue[T]) Receive() <-chan T {
	return q.out
}

// Send queues the message, returning false if the queue is closed.
func (q *queue[T]) Send(msg T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, msg)
	q.notify()
	return true
}

func (q *queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
	q.notify()
}

func (q *queue[T]) Closed() <-chan struct{} {
	return q.done
}

// notify must be called with mu held.
func (q *queue[T]) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *queue[T]) pump() {
	defer close(q.out)
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		next := q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]
		q.mu.Unlock()
		q.out <- next
	}
}
