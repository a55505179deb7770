package audio_downloader

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DownloadRequest is a single conversion request as sent to the backend.
type DownloadRequest struct {
	URL          string `json:"url"`
	ConvertMP3   bool   `json:"convert_mp3"`
	KeepOriginal bool   `json:"keep_original"`
}

// Validate checks the request can be sent at all; it does not check the URL is a known video host.
func (r DownloadRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return &ValidationError{Field: "url", Reason: "empty"}
	}
	return nil
}

// Query encodes the request as the query parameters of the stream endpoint.
func (r DownloadRequest) Query() url.Values {
	return url.Values{
		"url":           {r.URL},
		"convert_mp3":   {strconv.FormatBool(r.ConvertMP3)},
		"keep_original": {strconv.FormatBool(r.KeepOriginal)},
	}
}

func (r DownloadRequest) String() string {
	return fmt.Sprintf("DownloadRequest{URL:%q, ConvertMP3:%v, KeepOriginal:%v}", r.URL, r.ConvertMP3, r.KeepOriginal)
}
