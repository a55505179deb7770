package pubsub

import (
	"errors"
	"sync"

	"github.com/alanbriolat/audio-downloader/generic"
	"github.com/alanbriolat/audio-downloader/internal/sync_"
)

const (
	DefaultPublisherBufSize  = 1
	DefaultSubscriberBufSize = 1
)

var (
	ErrPublisherClosed = errors.New("publisher closed")
)

// A Publisher fans every message out to all of its subscribers, in the order messages were sent.
type Publisher[T any] interface {
	SenderCloser[T]
	// AddSubscriber adds an existing sender as a subscriber; if closeOnClose is false, the subscriber is left open
	// when the publisher closes.
	AddSubscriber(s SenderCloser[T], closeOnClose bool) error
	Subscribe() (ReceiverCloser[T], error)
	SubscribeBufSize(int) (ReceiverCloser[T], error)
}

type subscribers[T any] struct {
	all      generic.Set[SenderCloser[T]]
	keepOpen generic.Set[SenderCloser[T]]
}

type publisher[T any] struct {
	mu          sync.Mutex
	ch          Channel[T]
	running     sync.WaitGroup // Goroutines in progress
	pending     sync.WaitGroup // Messages not yet sent to all subscribers
	subscribers *sync_.Mutexed[subscribers[T]]
	closed      bool
}

func NewPublisher[T any]() Publisher[T] {
	return NewPublisherBufSize[T](DefaultPublisherBufSize)
}

func NewPublisherBufSize[T any](bufSize int) Publisher[T] {
	p := &publisher[T]{
		ch: NewChannel[T](bufSize),
		subscribers: sync_.NewMutexed(subscribers[T]{
			all:      generic.NewSet[SenderCloser[T]](),
			keepOpen: generic.NewSet[SenderCloser[T]](),
		}),
	}
	p.running.Add(1)
	go func() {
		defer p.running.Done()
		for v := range p.ch.Receive() {
			// Snapshot the subscribers, so that a slow subscriber doesn't block new subscriptions
			for _, s := range p.subscriberSlice(false) {
				if ok := s.Send(v); !ok {
					p.unsubscribe(s)
				}
			}
			p.pending.Done()
		}
	}()
	return p
}

// Send will queue the value for all subscribers, returning false if the publisher is closed.
func (p *publisher[T]) Send(msg T) bool {
	p.pending.Add(1)
	if ok := p.ch.Send(msg); !ok {
		p.pending.Done()
		return false
	}
	return true
}

func (p *publisher[T]) Subscribe() (ReceiverCloser[T], error) {
	return p.SubscribeBufSize(DefaultSubscriberBufSize)
}

func (p *publisher[T]) SubscribeBufSize(bufSize int) (ReceiverCloser[T], error) {
	s := NewChannel[T](bufSize)
	if err := p.AddSubscriber(s, true); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *publisher[T]) AddSubscriber(s SenderCloser[T], closeOnClose bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	return p.subscribers.Locked(func(subs *subscribers[T]) error {
		subs.all.Add(s)
		if !closeOnClose {
			subs.keepOpen.Add(s)
		}
		return nil
	})
}

func (p *publisher[T]) unsubscribe(s SenderCloser[T]) {
	_ = p.subscribers.Locked(func(subs *subscribers[T]) error {
		subs.all.Remove(s)
		subs.keepOpen.Remove(s)
		return nil
	})
}

// subscriberSlice returns the current subscribers; with forClose, the set is emptied and only those that should be
// closed along with the publisher are returned.
func (p *publisher[T]) subscriberSlice(forClose bool) []SenderCloser[T] {
	var result []SenderCloser[T]
	_ = p.subscribers.Locked(func(subs *subscribers[T]) error {
		if !forClose {
			result = subs.all.ToSlice()
			return nil
		}
		for _, s := range subs.all.ToSlice() {
			if !subs.keepOpen.Contains(s) {
				result = append(result, s)
			}
		}
		subs.all.Clear()
		subs.keepOpen.Clear()
		return nil
	})
	return result
}

// Close idempotently shuts down the publisher, closing its subscribers too.
func (p *publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	// Close the send channel, and wait for the channel to be flushed
	p.ch.Close()
	p.pending.Wait()
	p.running.Wait()
	for _, s := range p.subscriberSlice(true) {
		s.Close()
	}
	p.closed = true
}

func (p *publisher[T]) Closed() <-chan struct{} {
	return p.ch.Closed()
}
