package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alanbriolat/audio-downloader/generic"
)

type AttemptID string

func NewAttemptID() AttemptID {
	return AttemptID(generic.Unwrap(uuid.NewRandom()).String())
}

type Phase string

const (
	PhaseReady     Phase = "ready"
	PhasePreparing Phase = "preparing"
	PhaseInFlight  Phase = "in_flight"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
)

var activePhases = generic.NewSet(
	PhasePreparing,
	PhaseInFlight,
)

// IsActive returns true if an attempt is in progress in this phase.
func (p Phase) IsActive() bool {
	return activePhases.Contains(p)
}

// CanStart returns true if a new attempt may begin from this phase. Complete and Failed are treated like Ready.
func (p Phase) CanStart() bool {
	return !p.IsActive()
}

const (
	StatusReady      = "Ready"
	StatusPreparing  = "Preparing download..."
	StatusConnecting = "Connecting to server..."
	StatusFileReady  = "File ready - triggering download..."
	StatusSaving     = "Opening save dialog..."
	StatusStreaming  = "Downloading..."
	StatusComplete   = "Download Complete!"
	StatusFailed     = "Download Failed"
	StatusCancelled  = "Download Cancelled"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityProgress Severity = "progress"
)

// LogEntry is one line of the session log. Entries are never modified after they are appended.
type LogEntry struct {
	Time     time.Time
	Message  string
	Severity Severity
}

func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// State is everything a front-end needs to render a session. It is only ever modified by the controller's loop;
// values handed out are copies.
type State struct {
	Phase      Phase
	Progress   float64
	Speed      string
	ETA        string
	StatusText string
	Log        []LogEntry
	IsActive   bool
	AttemptID  AttemptID

	// Incremented whenever Log is reset, so observers can tell a reset apart from appends.
	logEpoch int `diff:"-"`
}

func InitialState() State {
	return State{
		Phase:      PhaseReady,
		Progress:   0,
		Speed:      "-",
		ETA:        "-",
		StatusText: StatusReady,
		Log:        []LogEntry{},
	}
}

func (s *State) clone() State {
	c := *s
	c.Log = append(make([]LogEntry, 0, len(s.Log)), s.Log...)
	return c
}

func (s *State) appendLog(severity Severity, format string, args ...interface{}) {
	s.Log = append(s.Log, LogEntry{
		Time:     time.Now(),
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
	})
}

// resetProgress empties the log and zeroes progress, keeping the phase and active flag.
func (s *State) resetProgress() {
	s.Progress = 0
	s.Speed = "-"
	s.ETA = "-"
	s.Log = []LogEntry{}
	s.logEpoch++
}
