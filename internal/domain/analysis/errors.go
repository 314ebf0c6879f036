package analysis

import (
	"errors"
	"fmt"
)

// ErrNotConnected indicates an operation was attempted before a successful connect.
var ErrNotConnected = errors.New("not connected to analysis endpoint")

// ErrNoImage indicates an operation was attempted with a nil/empty image.
var ErrNoImage = errors.New("no image provided")

// TransportError wraps a network or HTTP failure talking to the endpoint.
type TransportError struct {
	Capability Capability
	Err        error
}

func (e *TransportError) Error() string {
	if e.Capability != "" {
		return fmt.Sprintf("transport error on %s: %v", e.Capability, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError wraps a response that claimed to be JSON but failed to parse.
type MalformedResponseError struct {
	Err error
	Raw string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
