package gateway

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/r3labs/sse/v2"
	"go.uber.org/zap"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/internal/pubsub"
)

// A Source delivers raw event payloads to emit until the stream ends or ctx is done. emit returns false once nobody
// is listening any more.
type Source func(ctx context.Context, emit func(data []byte) bool) error

// ProgressStream is a cancellable, non-restartable sequence of progress events. Malformed payloads are logged and
// dropped; the first transport error ends the sequence.
type ProgressStream struct {
	ch      pubsub.Channel[audio_downloader.ProgressEvent]
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	dropped atomic.Int64
	log     *zap.SugaredLogger
}

var _ pubsub.ReceiverCloser[audio_downloader.ProgressEvent] = &ProgressStream{}

// NewProgressStream starts reading from src in the background.
func NewProgressStream(ctx context.Context, src Source) *ProgressStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &ProgressStream{
		ch:     pubsub.NewChannel[audio_downloader.ProgressEvent](0),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		log:    zap.S().Named("gateway.stream"),
	}
	go s.run(src)
	return s
}

// OpenProgressStream subscribes to the backend's progress events for req. The connection is made lazily in the
// background; connection failures are reported by Err once Receive is closed. There is no reconnect.
func (c *Client) OpenProgressStream(ctx context.Context, req audio_downloader.DownloadRequest) *ProgressStream {
	return NewProgressStream(ctx, c.sseSource(c.StreamURL(req)))
}

func (c *Client) sseSource(url string) Source {
	return func(ctx context.Context, emit func([]byte) bool) error {
		client := sse.NewClient(url)
		client.Connection = c.http
		client.ReconnectStrategy = &backoff.StopBackOff{}
		c.log.Debugf("GET %s (event stream)", url)
		return client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
			if len(msg.Data) == 0 {
				return
			}
			emit(msg.Data)
		})
	}
}

func (s *ProgressStream) run(src Source) {
	err := src(s.ctx, s.emit)
	switch {
	case s.ctx.Err() != nil:
		// Closed by the consumer, not a failure
		err = nil
	case errors.Is(err, io.EOF):
		err = nil
	}
	if err != nil {
		s.log.Warnf("progress stream failed: %v", err)
		s.err = &audio_downloader.TransportError{Err: err}
	}
	// Err must be final before consumers see Receive() close
	close(s.done)
	s.ch.Close()
}

func (s *ProgressStream) emit(data []byte) bool {
	event, err := audio_downloader.ParseProgressEvent(data)
	if err != nil {
		s.dropped.Add(1)
		s.log.Warnf("dropping event: %v", err)
		return true
	}
	return s.ch.Send(event)
}

// Receive returns the event channel, which is closed when the stream ends for any reason.
func (s *ProgressStream) Receive() <-chan audio_downloader.ProgressEvent {
	return s.ch.Receive()
}

// Close cancels the subscription and waits for the reader to stop. Idempotent.
func (s *ProgressStream) Close() {
	s.cancel()
	s.ch.Close()
	<-s.done
}

func (s *ProgressStream) Closed() <-chan struct{} {
	return s.ch.Closed()
}

// Done is closed once the stream has fully stopped and Err is final.
func (s *ProgressStream) Done() <-chan struct{} {
	return s.done
}

// Err returns the transport error that ended the stream, or nil if it is still running, ended cleanly, or was
// closed by the consumer.
func (s *ProgressStream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Dropped is the number of malformed payloads discarded so far.
func (s *ProgressStream) Dropped() int64 {
	return s.dropped.Load()
}
