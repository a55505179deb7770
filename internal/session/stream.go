package session

import (
	"context"
	"fmt"

	"github.com/alanbriolat/audio-downloader"
)

// StreamDownload follows the backend's progress events for req until the stream finishes, fails, or ctx is
// cancelled. Nothing is saved locally; the backend does all the work.
func (c *Controller) StreamDownload(ctx context.Context, req audio_downloader.DownloadRequest) (err error) {
	unknownHost, err := c.validate(req)
	if err != nil {
		return err
	}
	a, err := c.begin(ctx, req, ModeStream, unknownHost)
	if err != nil {
		return err
	}
	defer func() { a.finish(err) }()

	err = a.stream(req)
	if isCancellation(a.ctx, err) {
		return a.cancelled(a.ctx.Err())
	} else if err != nil {
		return a.fail(err)
	}
	return nil
}

func (a *attempt) stream(req audio_downloader.DownloadRequest) error {
	c := a.c
	a.progress(0, StatusConnecting)
	a.set(func(s *State) { s.appendLog(SeverityProgress, "Connecting to progress stream...") })

	stream := c.gateway.OpenProgressStream(a.ctx, req)
	defer stream.Close()

	var last audio_downloader.ProgressEvent
	for event := range stream.Receive() {
		a.apply(event)
		last = event
		if event.IsTerminal() {
			break
		}
	}
	if dropped := stream.Dropped(); dropped > 0 {
		c.log.Warnf("attempt %s: dropped %d malformed progress events", a.record.ID, dropped)
	}

	switch {
	case a.ctx.Err() != nil:
		return a.ctx.Err()
	case last.Status == audio_downloader.ProgressStatusError:
		return fmt.Errorf("%w: %s", ErrBackend, last.Message)
	case !last.IsTerminal():
		if err := stream.Err(); err != nil {
			return err
		}
	}

	a.set(func(s *State) {
		s.Phase = PhaseComplete
		s.Progress = 100
		s.StatusText = StatusComplete
		s.appendLog(SeveritySuccess, "Download complete!")
	})
	return nil
}

func (a *attempt) apply(event audio_downloader.ProgressEvent) {
	a.set(func(s *State) {
		s.Phase = PhaseInFlight
		s.Progress = event.ClampedPercent()
		s.StatusText = StatusStreaming
		if event.Speed != "" {
			s.Speed = event.Speed
		}
		if event.ETA != "" {
			s.ETA = event.ETA
		}
		if event.Message != "" {
			s.appendLog(severityOf(event), "%s", event.Message)
		}
	})
}

func severityOf(event audio_downloader.ProgressEvent) Severity {
	switch event.Status {
	case audio_downloader.ProgressStatusComplete:
		return SeveritySuccess
	case audio_downloader.ProgressStatusError:
		return SeverityError
	default:
		return SeverityProgress
	}
}
