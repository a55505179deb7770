package session

import "errors"

var (
	ErrBusy         = errors.New("an attempt is already in progress")
	ErrActive       = errors.New("cannot clear the log while an attempt is in progress")
	ErrNotConfirmed = errors.New("not confirmed by user")
	ErrClosed       = errors.New("session closed")
	ErrBackend      = errors.New("backend reported an error")
)
