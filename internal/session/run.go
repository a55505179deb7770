package session

import (
	"errors"

	"github.com/r3labs/diff/v3"

	"github.com/alanbriolat/audio-downloader/internal/lpc"
)

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case cmd := <-c.commands:
			c.handle(cmd)
		}
	}
}

// update runs f against the session state on the session loop, returning the resulting state. If f returns an
// error, any changes it made are discarded. A nil f just reads the state.
func (c *Controller) update(f func(*State) error) (State, error) {
	state, err := lpc.Call(c.ctx, c.commands, f)
	if err != nil && errors.Is(err, c.ctx.Err()) {
		return State{}, ErrClosed
	}
	return state, err
}

func (c *Controller) handle(cmd updateCommand) {
	f := cmd.Arg()
	if f == nil {
		_ = cmd.Respond(c.state.clone())
		return
	}
	old := c.state.clone()
	if err := f(&c.state); err != nil {
		c.state = old
		_ = cmd.RespondError(err)
		return
	}
	c.publishChanges(old, c.state.clone())
	_ = cmd.Respond(c.state.clone())
}

func (c *Controller) publishChanges(old, next State) {
	event := attemptEvent{next.AttemptID}
	var appended []LogEntry
	if next.logEpoch != old.logEpoch {
		c.events.Send(LogCleared{event})
		appended = next.Log
	} else if len(next.Log) > len(old.Log) {
		appended = next.Log[len(old.Log):]
	}
	for _, entry := range appended {
		c.events.Send(LogAppended{event, entry})
	}
	if diff.Changed(old, next) {
		c.events.Send(StateChanged{event, old, next})
	}
}
