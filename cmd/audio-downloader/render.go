package main

import (
	"fmt"
	"io"

	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/alanbriolat/audio-downloader/generic"
	"github.com/alanbriolat/audio-downloader/internal/pubsub"
	"github.com/alanbriolat/audio-downloader/internal/session"
)

var severityMarkers = map[session.Severity]string{
	session.SeverityInfo:     " ",
	session.SeveritySuccess:  "+",
	session.SeverityError:    "x",
	session.SeverityWarning:  "!",
	session.SeverityProgress: ">",
}

// renderer draws session events on a terminal: log entries as lines, progress as a bar.
type renderer struct {
	out  io.Writer
	log  *zap.SugaredLogger
	mode session.Mode
	bar  *progressbar.ProgressBar
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{
		out: out,
		log: zap.S().Named("render"),
	}
}

func (r *renderer) run(events pubsub.ReceiverCloser[session.Event]) {
	for event := range events.Receive() {
		switch e := event.(type) {
		case session.AttemptStarted:
			r.mode = e.Mode
			r.startBar(e.Mode)
		case session.LogAppended:
			r.println(e.Entry)
		case session.TransferProgress:
			if r.bar != nil && r.mode == session.ModeFetch {
				if e.Expected > 0 && r.bar.GetMax64() != e.Expected {
					r.bar.ChangeMax64(e.Expected)
				}
				generic.Unwrap_(r.bar.Set64(e.Written))
			}
		case session.StateChanged:
			r.debugChanges(e)
			if r.bar != nil && r.mode == session.ModeStream && e.NewState.IsActive {
				r.bar.Describe(fmt.Sprintf("%s, ETA %s", e.NewState.Speed, e.NewState.ETA))
				generic.Unwrap_(r.bar.Set(int(e.NewState.Progress)))
			}
		case session.AttemptFinished:
			r.stopBar()
		}
	}
	r.stopBar()
}

func (r *renderer) startBar(mode session.Mode) {
	r.stopBar()
	if mode == session.ModeFetch {
		r.bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription("receiving"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
	} else {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionClearOnFinish(),
		)
	}
}

func (r *renderer) stopBar() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

func (r *renderer) println(entry session.LogEntry) {
	if r.bar != nil {
		_ = r.bar.Clear()
	}
	fmt.Fprintf(r.out, "%s %s\n", severityMarkers[entry.Severity], entry)
}

func (r *renderer) debugChanges(e session.StateChanged) {
	if !r.log.Desugar().Core().Enabled(zap.DebugLevel) {
		return
	}
	changes, err := diff.Diff(e.OldState, e.NewState)
	if err != nil {
		r.log.Errorf("failed to diff old and new session state: %v", err)
		return
	}
	for _, change := range changes {
		if len(change.Path) > 0 && change.Path[0] == "Log" {
			continue
		}
		r.log.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
	}
}
