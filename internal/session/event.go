package session

import (
	"github.com/alanbriolat/audio-downloader"
)

type Event interface {
	// The attempt this event relates to (empty if not attempt-specific).
	Attempt() AttemptID
}

type attemptEvent struct {
	id AttemptID
}

func (e attemptEvent) Attempt() AttemptID {
	return e.id
}

// StateChanged is sent after any change to State.
type StateChanged struct {
	attemptEvent
	OldState State
	NewState State
}

// LogAppended is sent once for every new log entry, in order.
type LogAppended struct {
	attemptEvent
	Entry LogEntry
}

// LogCleared is sent when the log is reset, before any LogAppended for the new log.
type LogCleared struct {
	attemptEvent
}

type AttemptStarted struct {
	attemptEvent
	Request audio_downloader.DownloadRequest
	Mode    Mode
}

type AttemptFinished struct {
	attemptEvent
	Record AttemptRecord
	Err    error
}

// TransferProgress reports bytes received from the backend while spooling a response. Expected is -1 if unknown.
type TransferProgress struct {
	attemptEvent
	Written  int64
	Expected int64
}
