package audio_downloader

import (
	"encoding/json"
	"math"
)

type ProgressStatus string

const (
	ProgressStatusUndefined ProgressStatus = ""
	ProgressStatusComplete  ProgressStatus = "complete"
	ProgressStatusError     ProgressStatus = "error"
)

// ProgressEvent is one message from the backend's progress stream.
type ProgressEvent struct {
	Percent float64        `json:"percent"`
	Speed   string         `json:"speed,omitempty"`
	ETA     string         `json:"eta,omitempty"`
	Message string         `json:"message,omitempty"`
	Status  ProgressStatus `json:"status,omitempty"`
}

// ParseProgressEvent decodes a stream payload, returning a *MalformedEventError if it isn't a JSON object.
func ParseProgressEvent(data []byte) (ProgressEvent, error) {
	var event ProgressEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ProgressEvent{}, &MalformedEventError{Data: append([]byte(nil), data...), Err: err}
	}
	return event, nil
}

// ClampedPercent is Percent limited to [0, 100].
func (e ProgressEvent) ClampedPercent() float64 {
	if math.IsNaN(e.Percent) {
		return 0
	}
	return math.Max(0, math.Min(100, e.Percent))
}

// IsTerminal is true for events that announce the end of the stream.
func (e ProgressEvent) IsTerminal() bool {
	return e.Status == ProgressStatusComplete || e.Status == ProgressStatusError
}
