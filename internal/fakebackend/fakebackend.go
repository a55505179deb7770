// Package fakebackend is an in-process stand-in for the conversion backend. It speaks the same HTTP contract, but
// serves canned payloads and progress events instead of fetching anything.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/generic"
)

type Backend struct {
	// Payload is the body of a successful /download-file response.
	Payload []byte
	// Filename is sent in Content-Disposition; empty means no header.
	Filename string
	// Status overrides the /download-file status code when non-zero; ErrorText is the body of a non-2xx response.
	Status    int
	ErrorText string
	// Events are the raw data payloads sent, in order, by /download-stream.
	Events []string
	// EventInterval is the delay between stream events.
	EventInterval time.Duration
	// StreamStatus overrides the /download-stream status code when non-zero.
	StreamStatus int

	mu       sync.Mutex
	requests []audio_downloader.DownloadRequest
	log      *zap.SugaredLogger
}

// New returns a Backend that succeeds with a small payload and a plausible sequence of progress events.
func New() *Backend {
	return &Backend{
		Payload:  []byte("ID3\x03\x00\x00\x00\x00\x00\x00fake audio payload"),
		Filename: "fake_audio.mp3",
		Events:   DefaultEvents(),
		log:      zap.S().Named("fakebackend"),
	}
}

// DefaultEvents is a download that progresses from 0 to 100% and then completes.
func DefaultEvents() []string {
	var events []string
	for percent := 0; percent <= 100; percent += 25 {
		event := audio_downloader.ProgressEvent{
			Percent: float64(percent),
			Speed:   fmt.Sprintf("%.1fMiB/s", 1.5+float64(percent)/100),
			ETA:     fmt.Sprintf("00:%02d", (100-percent)/10),
			Message: fmt.Sprintf("Downloading... %d%%", percent),
		}
		events = append(events, string(generic.Unwrap(json.Marshal(event))))
	}
	final := audio_downloader.ProgressEvent{Percent: 100, Message: "Conversion complete", Status: audio_downloader.ProgressStatusComplete}
	return append(events, string(generic.Unwrap(json.Marshal(final))))
}

// Handler builds the gin engine serving the backend contract.
func (b *Backend) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), b.logRequests())
	// Browsers can only read Content-Disposition if it is exposed
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Disposition", "Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	engine.POST(audio_downloader.DownloadFilePath, b.downloadFile)
	engine.GET(audio_downloader.DownloadStreamPath, b.downloadStream)
	return engine
}

// Requests returns every request received so far, from either endpoint.
func (b *Backend) Requests() []audio_downloader.DownloadRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]audio_downloader.DownloadRequest(nil), b.requests...)
}

func (b *Backend) record(req audio_downloader.DownloadRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
}

func (b *Backend) downloadFile(c *gin.Context) {
	var req audio_downloader.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request: %v", err)
		return
	}
	b.record(req)
	if err := req.Validate(); err != nil {
		c.String(http.StatusBadRequest, "URL is required")
		return
	}
	if b.Status != 0 && (b.Status < 200 || b.Status >= 300) {
		c.String(b.Status, "%s", b.ErrorText)
		return
	}
	if b.Filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", b.Filename))
	}
	status := http.StatusOK
	if b.Status != 0 {
		status = b.Status
	}
	contentType := "audio/mpeg"
	if !req.ConvertMP3 {
		contentType = "application/octet-stream"
	}
	c.Data(status, contentType, b.Payload)
}

func (b *Backend) downloadStream(c *gin.Context) {
	convertMP3, _ := strconv.ParseBool(c.Query("convert_mp3"))
	keepOriginal, _ := strconv.ParseBool(c.Query("keep_original"))
	req := audio_downloader.DownloadRequest{URL: c.Query("url"), ConvertMP3: convertMP3, KeepOriginal: keepOriginal}
	b.record(req)
	if b.StreamStatus != 0 && b.StreamStatus != http.StatusOK {
		c.String(b.StreamStatus, "stream unavailable")
		return
	}
	if err := req.Validate(); err != nil {
		c.String(http.StatusBadRequest, "URL is required")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()
	for i, data := range b.Events {
		if i > 0 && b.EventInterval > 0 {
			select {
			case <-time.After(b.EventInterval):
			case <-c.Request.Context().Done():
				return
			}
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return
		}
		c.Writer.Flush()
	}
}

func (b *Backend) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		b.logger().Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (b *Backend) logger() *zap.SugaredLogger {
	if b.log == nil {
		return zap.S().Named("fakebackend")
	}
	return b.log
}
