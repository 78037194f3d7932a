package samsara

import "fmt"

// TransportError covers network failures, timeouts, and non-2xx responses for
// a single request unit (one page or one chunk). Always recoverable: the
// owning unit is skipped, or for maintenance the whole fetch aborts.
type TransportError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("samsara: %s returned %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("samsara: %s request failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError marks a response body that could not be decoded.
// Treated the same as a transport failure for the owning unit.
type MalformedResponseError struct {
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("samsara: %s returned malformed body: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
