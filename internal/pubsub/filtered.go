package pubsub

// NewFilteredSender wraps s so that only messages accepted by accept are passed on. Close and Closed act on s
// directly.
func NewFilteredSender[T any](s SenderCloser[T], accept func(T) bool) SenderCloser[T] {
	if accept == nil {
		return s
	}
	return &filteredSender[T]{inner: s, accept: accept}
}

type filteredSender[T any] struct {
	inner  SenderCloser[T]
	accept func(T) bool
}

// Send reports rejected messages as delivered: false only ever means the inner sender is closed.
func (s *filteredSender[T]) Send(msg T) bool {
	if s.accept(msg) {
		return s.inner.Send(msg)
	}
	select {
	case <-s.inner.Closed():
		return false
	default:
		return true
	}
}

func (s *filteredSender[T]) Close() {
	s.inner.Close()
}

func (s *filteredSender[T]) Closed() <-chan struct{} {
	return s.inner.Closed()
}
