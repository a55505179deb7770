package session

import "time"

type Mode string

const (
	ModeFetch  Mode = "fetch"
	ModeStream Mode = "stream"
)

// AttemptRecord is the summary of a finished attempt kept by a History.
type AttemptRecord struct {
	ID           AttemptID `json:"id"`
	URL          string    `json:"url"`
	ConvertMP3   bool      `json:"convert_mp3"`
	KeepOriginal bool      `json:"keep_original"`
	Mode         Mode      `json:"mode"`
	Filename     string    `json:"filename,omitempty"`
	SavedPath    string    `json:"saved_path,omitempty"`
	Phase        Phase     `json:"phase"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

type History interface {
	ListAttempts() ([]AttemptRecord, error)
	WriteAttempt(*AttemptRecord) error
}

type NilHistory struct{}

func (h NilHistory) ListAttempts() ([]AttemptRecord, error) {
	return nil, nil
}

func (h NilHistory) WriteAttempt(_ *AttemptRecord) error {
	return nil
}
