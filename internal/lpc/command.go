// Package lpc stands for "Local Procedure Call". It's a typed RPC-like mechanism implemented over Go channels, intended
// for communication with long-running goroutines.
package lpc

import (
	"context"
	"errors"

	"github.com/alanbriolat/audio-downloader/generic"
	"github.com/alanbriolat/audio-downloader/internal/sync_"
)

var (
	ErrAlreadyResponded = errors.New("command response already sent")
	ErrNoResponse       = errors.New("no response")
)

// Command carries an argument to a goroutine and a single response back. Create with New; the zero value panics.
type Command[Arg any, Response any] struct {
	initialized bool
	arg         Arg
	response    generic.Result[Response]
	done        sync_.Event
}

func (*Command[Arg, Response]) New(arg Arg) *Command[Arg, Response] {
	return &Command[Arg, Response]{
		initialized: true,
		arg:         arg,
		response:    generic.Err[Response](ErrNoResponse), // If closed without a response
	}
}

func (c *Command[Arg, Response]) mustBeInitialized(method string) {
	if c == nil || !c.initialized {
		panic("attempted to call ." + method + "() on uninitialized Command, must use .New() first")
	}
}

func (c *Command[Arg, Response]) Arg() Arg {
	return c.arg
}

func (c *Command[Arg, Response]) Respond(response Response) error {
	c.mustBeInitialized("Respond")
	return c.finish(generic.Ok(response))
}

func (c *Command[Arg, Response]) RespondError(err error) error {
	c.mustBeInitialized("RespondError")
	return c.finish(generic.Err[Response](err))
}

func (c *Command[Arg, Response]) finish(result generic.Result[Response]) error {
	if c.done.IsSet() {
		return ErrAlreadyResponded
	}
	c.response = result
	c.done.Set()
	return nil
}

// Wait blocks until there is a response.
func (c *Command[Arg, Response]) Wait() (Response, error) {
	c.mustBeInitialized("Wait")
	<-c.done.Wait()
	return c.response.Parts()
}

// Close without responding; Wait will return ErrNoResponse.
func (c *Command[Arg, Response]) Close() {
	c.mustBeInitialized("Close")
	c.done.Set()
}

// Call sends a new Command with arg to the goroutine reading commands, and waits for the response. If ctx is done
// before the command is accepted, ctx.Err() is returned instead.
func Call[Arg any, Response any](ctx context.Context, commands chan *Command[Arg, Response], arg Arg) (Response, error) {
	cmd := (*Command[Arg, Response])(nil).New(arg)
	select {
	case commands <- cmd:
		return cmd.Wait()
	case <-ctx.Done():
		var zero Response
		return zero, ctx.Err()
	}
}
