package session

import (
	"time"

	"github.com/alanbriolat/audio-downloader/generic"
	"github.com/alanbriolat/audio-downloader/internal/blob"
)

type pendingRelease struct {
	blob  *blob.Blob
	timer *time.Timer
}

// scheduleRelease releases b after the configured delay, or when the session is closed, whichever comes first.
func (c *Controller) scheduleRelease(b *blob.Blob) {
	p := &pendingRelease{blob: b}
	_ = c.releases.Locked(func(pending *generic.Set[*pendingRelease]) error {
		(*pending).Add(p)
		p.timer = time.AfterFunc(c.config.ReleaseDelay, func() {
			if c.release(p) {
				c.appendLog(SeverityInfo, "Cleaned up temporary files")
			}
		})
		return nil
	})
}

// release releases p if nothing else has already, returning true if it did.
func (c *Controller) release(p *pendingRelease) bool {
	var removed bool
	_ = c.releases.Locked(func(pending *generic.Set[*pendingRelease]) error {
		removed = (*pending).Remove(p)
		return nil
	})
	if !removed {
		return false
	}
	if err := p.blob.Release(); err != nil {
		c.log.Warnf("%v", err)
	}
	c.log.Debugf("released %v", p.blob)
	return true
}

func (c *Controller) flushReleases() {
	var all []*pendingRelease
	_ = c.releases.Locked(func(pending *generic.Set[*pendingRelease]) error {
		all = (*pending).ToSlice()
		return nil
	})
	for _, p := range all {
		p.timer.Stop()
		c.release(p)
	}
}

// PendingReleases is the number of blobs still waiting to be released.
func (c *Controller) PendingReleases() int {
	count := 0
	_ = c.releases.Locked(func(pending *generic.Set[*pendingRelease]) error {
		count = (*pending).Count()
		return nil
	})
	return count
}
