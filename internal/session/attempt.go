package session

import (
	"context"
	"errors"
	"time"

	"github.com/alanbriolat/audio-downloader"
)

const unknownHostPrompt = "This doesn't look like a YouTube URL. Continue anyway?"

type attempt struct {
	c      *Controller
	ctx    context.Context
	cancel context.CancelFunc
	record AttemptRecord
}

// validate checks req before anything else happens. Nothing here touches the network.
func (c *Controller) validate(req audio_downloader.DownloadRequest) (unknownHost bool, err error) {
	// An active attempt's log is left alone, even for an invalid request
	var invalid error
	if _, err := c.update(func(s *State) error {
		if s.IsActive {
			return ErrBusy
		}
		if invalid = req.Validate(); invalid != nil {
			s.appendLog(SeverityError, "Please enter a video URL")
		}
		return nil
	}); err != nil {
		return false, err
	} else if invalid != nil {
		return false, invalid
	}
	if c.config.Hosts == nil {
		return false, nil
	}
	if match, err := c.config.Hosts.Match(req.URL); err != nil {
		c.log.Debugf("no host matched %q: %v", req.URL, err)
		if c.config.Confirmer != nil && !c.config.Confirmer.Confirm(unknownHostPrompt) {
			c.appendLog(SeverityWarning, "Download cancelled: URL not recognised")
			return true, ErrNotConfirmed
		}
		return true, nil
	} else {
		c.log.Debugf("matched %s video %q", match.HostName, match.VideoID)
		return false, nil
	}
}

// begin activates a new attempt, or fails with ErrBusy if one is already active.
func (c *Controller) begin(ctx context.Context, req audio_downloader.DownloadRequest, mode Mode, unknownHost bool) (*attempt, error) {
	id := NewAttemptID()
	_, err := c.update(func(s *State) error {
		if !s.Phase.CanStart() || s.IsActive {
			return ErrBusy
		}
		s.resetProgress()
		s.IsActive = true
		s.Phase = PhasePreparing
		s.StatusText = StatusPreparing
		s.AttemptID = id
		s.appendLog(SeverityProgress, "Starting download process...")
		s.appendLog(SeverityInfo, "URL: %s", req.URL)
		s.appendLog(SeverityInfo, "Convert to MP3: %s", yesNo(req.ConvertMP3))
		s.appendLog(SeverityInfo, "Keep Original: %s", yesNo(req.KeepOriginal))
		if unknownHost {
			s.appendLog(SeverityWarning, "URL doesn't match a known video host")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Infof("attempt %s: %s %s", id, mode, req)
	c.events.Send(AttemptStarted{attemptEvent{id}, req, mode})

	a := &attempt{
		c: c,
		record: AttemptRecord{
			ID:           id,
			URL:          req.URL,
			ConvertMP3:   req.ConvertMP3,
			KeepOriginal: req.KeepOriginal,
			Mode:         mode,
			StartedAt:    time.Now(),
		},
	}
	// The attempt ends early if either the caller gives up or the session is closed
	a.ctx, a.cancel = context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, a.cancel)
	go func() {
		<-a.ctx.Done()
		stop()
	}()
	return a, nil
}

// set applies a state change for this attempt. Errors only happen once the session is closed, and the attempt will
// notice that through its context.
func (a *attempt) set(f func(s *State)) {
	_, _ = a.c.update(func(s *State) error {
		f(s)
		return nil
	})
}

func (a *attempt) progress(percent float64, status string) {
	a.set(func(s *State) {
		s.Phase = PhaseInFlight
		s.Progress = percent
		s.StatusText = status
	})
}

// fail moves the attempt to the failed phase, and returns err for convenience.
func (a *attempt) fail(err error) error {
	a.set(func(s *State) {
		s.Phase = PhaseFailed
		s.Progress = 0
		s.StatusText = StatusFailed
		s.appendLog(SeverityError, "Error: %v", err)
		s.appendLog(SeverityWarning, "Please check the URL and try again")
	})
	return err
}

// cancelled moves the attempt back to ready after the user gave up on it.
func (a *attempt) cancelled(err error) error {
	a.set(func(s *State) {
		s.Phase = PhaseReady
		s.Progress = 0
		s.StatusText = StatusCancelled
		s.appendLog(SeverityWarning, "Download cancelled")
	})
	return err
}

// finish clears the active flag, whatever happened, and records the outcome.
func (a *attempt) finish(err error) {
	defer a.cancel()
	c := a.c
	s, updateErr := c.update(func(s *State) error {
		if s.Phase.IsActive() {
			s.Phase = PhaseReady
		}
		s.IsActive = false
		return nil
	})
	a.record.FinishedAt = time.Now()
	if updateErr == nil {
		a.record.Phase = s.Phase
	} else if err == nil {
		a.record.Phase = PhaseComplete
	} else {
		a.record.Phase = PhaseFailed
	}
	if err != nil {
		a.record.Error = err.Error()
		c.log.Warnf("attempt %s failed: %v", a.record.ID, err)
	} else {
		c.log.Infof("attempt %s finished", a.record.ID)
	}
	if herr := c.config.History.WriteAttempt(&a.record); herr != nil {
		c.log.Errorf("failed to write attempt %s to history: %v", a.record.ID, herr)
	}
	c.events.Send(AttemptFinished{attemptEvent{a.record.ID}, a.record, err})
}

// isCancellation returns true if err is the result of the attempt being cancelled rather than a real failure.
func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (err == nil || errors.Is(err, ctx.Err()))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
