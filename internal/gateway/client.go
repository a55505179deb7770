// Package gateway is the transport adapter for the conversion backend. It issues requests and decodes stream
// payloads, but leaves every decision about the results to the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/audio-downloader"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client. It should not set a Timeout, since that would also cut off
// long-running progress streams; use contexts instead.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     zap.S().Named("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchDownload POSTs the request to the download-file endpoint and returns the response as-is; the caller must
// check the status and close the body. Only failures to get any response at all are returned as errors.
func (c *Client) FetchDownload(ctx context.Context, req audio_downloader.DownloadRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+audio_downloader.DownloadFilePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.log.Debugf("POST %s %s", httpReq.URL, body)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &audio_downloader.TransportError{Err: err}
	}
	c.log.Debugf("POST %s: %s", httpReq.URL, resp.Status)
	return resp, nil
}

// StreamURL is the address OpenProgressStream subscribes to for req.
func (c *Client) StreamURL(req audio_downloader.DownloadRequest) string {
	return c.baseURL + audio_downloader.DownloadStreamPath + "?" + req.Query().Encode()
}
