package audio_downloader

import "fmt"

// ValidationError is returned for a request that is rejected before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError covers both network failures (Err set) and non-2xx responses (StatusCode set).
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	return fmt.Sprintf("Server error: %d - %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedEventError describes a progress event payload that couldn't be decoded. It is never terminal.
type MalformedEventError struct {
	Data []byte
	Err  error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed progress event %q: %v", e.Data, e.Err)
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}
