package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	assert_ "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/internal/fakebackend"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestBackend(t *testing.T) (*fakebackend.Backend, *Client) {
	b := fakebackend.New()
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return b, New(srv.URL + "/")
}

func collect(s *ProgressStream) []audio_downloader.ProgressEvent {
	var events []audio_downloader.ProgressEvent
	for e := range s.Receive() {
		events = append(events, e)
	}
	return events
}

func TestClient_FetchDownload(t *testing.T) {
	assert := assert_.New(t)
	b, c := newTestBackend(t)
	req := audio_downloader.DownloadRequest{URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", ConvertMP3: true, KeepOriginal: true}

	resp, err := c.FetchDownload(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(b.Payload, data)
	assert.Equal([]audio_downloader.DownloadRequest{req}, b.Requests())
}

func TestClient_FetchDownload_StatusNotInterpreted(t *testing.T) {
	assert := assert_.New(t)
	b, c := newTestBackend(t)
	b.Status = http.StatusBadGateway
	b.ErrorText = "upstream unavailable"

	resp, err := c.FetchDownload(context.Background(), audio_downloader.DownloadRequest{URL: "https://youtu.be/x"})
	require.NoError(t, err, "non-2xx responses are returned, not turned into errors")
	defer resp.Body.Close()
	assert.Equal(http.StatusBadGateway, resp.StatusCode)
}

func TestClient_FetchDownload_NetworkError(t *testing.T) {
	assert := assert_.New(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL)

	_, err := c.FetchDownload(context.Background(), audio_downloader.DownloadRequest{URL: "https://youtu.be/x"})
	var transportErr *audio_downloader.TransportError
	assert.True(errors.As(err, &transportErr))
	assert.NotNil(transportErr.Err)
}

func TestClient_StreamURL(t *testing.T) {
	c := New("http://backend.local/")
	assert_.Equal(t,
		"http://backend.local/download-stream?convert_mp3=true&keep_original=false&url=https%3A%2F%2Fyoutu.be%2Fabc",
		c.StreamURL(audio_downloader.DownloadRequest{URL: "https://youtu.be/abc", ConvertMP3: true}),
	)
}

func TestClient_OpenProgressStream(t *testing.T) {
	assert := assert_.New(t)
	b, c := newTestBackend(t)
	b.Events = []string{
		`{"percent":25,"speed":"1.2MiB/s","eta":"00:07","message":"downloading"}`,
		`{percent:not-json}`,
		`{"percent":50}`,
		`{"percent":100,"status":"complete"}`,
	}
	req := audio_downloader.DownloadRequest{URL: "https://youtu.be/abc", ConvertMP3: true}

	s := c.OpenProgressStream(context.Background(), req)
	events := collect(s)
	require.Len(t, events, 3)
	assert.Equal(audio_downloader.ProgressEvent{Percent: 25, Speed: "1.2MiB/s", ETA: "00:07", Message: "downloading"}, events[0])
	assert.Equal(50.0, events[1].Percent)
	assert.Equal(audio_downloader.ProgressStatusComplete, events[2].Status)
	assert.Equal(int64(1), s.Dropped())
	assert.Nil(s.Err())
	assert.Equal([]audio_downloader.DownloadRequest{req}, b.Requests())
	s.Close()
}

func TestClient_OpenProgressStream_TransportError(t *testing.T) {
	assert := assert_.New(t)
	b, c := newTestBackend(t)
	b.StreamStatus = http.StatusServiceUnavailable

	s := c.OpenProgressStream(context.Background(), audio_downloader.DownloadRequest{URL: "https://youtu.be/abc"})
	assert.Empty(collect(s))
	var transportErr *audio_downloader.TransportError
	assert.True(errors.As(s.Err(), &transportErr))
	// Exactly one attempt, no reconnect
	assert.Len(b.Requests(), 1)
}

func TestProgressStream_MalformedDoesNotClose(t *testing.T) {
	assert := assert_.New(t)
	s := NewProgressStream(context.Background(), func(ctx context.Context, emit func([]byte) bool) error {
		emit([]byte(`{"percent":25}`))
		emit([]byte(`{percent:not-json}`))
		emit([]byte(`{"percent":75}`))
		return nil
	})
	events := collect(s)
	assert.Equal([]audio_downloader.ProgressEvent{{Percent: 25}, {Percent: 75}}, events)
	assert.Equal(int64(1), s.Dropped())
	assert.Nil(s.Err())
}

func TestProgressStream_Close(t *testing.T) {
	assert := assert_.New(t)
	started := make(chan struct{})
	s := NewProgressStream(context.Background(), func(ctx context.Context, emit func([]byte) bool) error {
		close(started)
		for {
			if !emit([]byte(`{"percent":1}`)) {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	})
	<-started
	first := <-s.Receive()
	assert.Equal(1.0, first.Percent)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		assert.Fail("Close should not block")
	}
	// Cancelled by the consumer is not an error, and the sequence doesn't restart
	assert.Nil(s.Err())
	for range s.Receive() {
	}
	s.Close()
}

func TestProgressStream_SourceError(t *testing.T) {
	assert := assert_.New(t)
	boom := errors.New("connection reset")
	s := NewProgressStream(context.Background(), func(ctx context.Context, emit func([]byte) bool) error {
		emit([]byte(`{"percent":5}`))
		return boom
	})
	assert.Len(collect(s), 1)
	assert.ErrorIs(s.Err(), boom)
}
