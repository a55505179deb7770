package session

import (
	"context"
	"io"
	"strings"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/util"
)

// Error bodies longer than this are truncated.
const maxErrorBody = 64 * 1024

// StartDownload asks the backend for the converted file in one request and saves it. Failures are recorded in the
// session state and log, and also returned.
func (c *Controller) StartDownload(ctx context.Context, req audio_downloader.DownloadRequest) (err error) {
	unknownHost, err := c.validate(req)
	if err != nil {
		return err
	}
	a, err := c.begin(ctx, req, ModeFetch, unknownHost)
	if err != nil {
		return err
	}
	defer func() { a.finish(err) }()

	err = a.fetch(req)
	if isCancellation(a.ctx, err) {
		return a.cancelled(a.ctx.Err())
	} else if err != nil {
		return a.fail(err)
	}
	return nil
}

func (a *attempt) fetch(req audio_downloader.DownloadRequest) error {
	c := a.c
	a.progress(10, StatusConnecting)
	a.set(func(s *State) { s.appendLog(SeverityProgress, "Requesting file from server...") })

	resp, err := c.gateway.FetchDownload(a.ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &audio_downloader.TransportError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	filename := util.FilenameOrDefault(resp.Header.Get("Content-Disposition"), c.config.DefaultFilename)
	a.record.Filename = filename
	a.progress(50, StatusFileReady)
	a.set(func(s *State) {
		s.appendLog(SeveritySuccess, "Server processing complete!")
		s.appendLog(SeverityInfo, "Filename: %s", filename)
	})

	b, err := c.store.Put(a.ctx, resp.Body, resp.ContentLength, func(written, expected int64) {
		c.events.Send(TransferProgress{attemptEvent{a.record.ID}, written, expected})
	})
	if err != nil {
		if isCancellation(a.ctx, err) {
			return err
		}
		return &audio_downloader.TransportError{Err: err}
	}
	a.progress(80, StatusSaving)
	a.set(func(s *State) { s.appendLog(SeverityInfo, "File size: %.2f MB", b.SizeMB()) })

	path, err := c.saver.Save(a.ctx, b, filename)
	if err != nil {
		if rerr := b.Release(); rerr != nil {
			c.log.Warnf("%v", rerr)
		}
		return err
	}
	a.record.SavedPath = path
	c.scheduleRelease(b)

	a.set(func(s *State) {
		s.Phase = PhaseComplete
		s.Progress = 100
		s.StatusText = StatusComplete
		s.appendLog(SeveritySuccess, "Saved to %s", path)
		s.appendLog(SeveritySuccess, "Download complete!")
	})
	return nil
}
