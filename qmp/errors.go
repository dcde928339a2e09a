package qmp

import (
	"errors"
	"fmt"
)

// Sentinel errors for the QMP client.
var (
	// ErrNotReady indicates a call was attempted on a session that is
	// not in the Ready state.
	ErrNotReady = errors.New("session not ready")

	// ErrDisconnected indicates the peer closed the connection while a
	// call was in flight.
	ErrDisconnected = errors.New("disconnected from emulator")

	// ErrTruncated indicates the stream ended before a complete JSON
	// document was received.
	ErrTruncated = errors.New("stream closed mid-message")

	// ErrMessageTooLarge indicates the framing buffer exceeded
	// MaxMessageSize without containing a complete document.
	ErrMessageTooLarge = errors.New("message exceeds size limit")
)

// ConnectionError represents a socket-level failure (dial, write, or
// read) on the control connection.
type ConnectionError struct {
	Op  string // "dial", "write", "read", "close"
	Err error
}

// NewConnectionError creates a ConnectionError wrapping the cause.
func NewConnectionError(op string, err error) *ConnectionError {
	return &ConnectionError{Op: op, Err: err}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// UnavailableError indicates that every connection attempt to the
// endpoint failed and the retry budget is exhausted.
type UnavailableError struct {
	Endpoint Endpoint
	Attempts int
	Err      error // the last dial error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("emulator at %s unavailable after %d attempts: %v",
		e.Endpoint, e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// NegotiationError indicates the capabilities handshake was rejected.
// It is fatal to the session.
type NegotiationError struct {
	Err error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("capability negotiation failed: %v", e.Err)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// ProtocolError indicates a message that is not valid for the protocol:
// undecodable bytes, a non-greeting first message, or a response
// envelope carrying neither a return nor an error.
type ProtocolError struct {
	Reason string
	Raw    []byte // the offending document, if available
}

func (e *ProtocolError) Error() string {
	if len(e.Raw) == 0 {
		return "protocol error: " + e.Reason
	}
	return fmt.Sprintf("protocol error: %s: %s", e.Reason, truncateForError(e.Raw))
}

// truncateForError keeps error strings readable when the offending
// document is large.
func truncateForError(raw []byte) string {
	const max = 128
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max]) + "..."
}

// ArgumentError indicates a command constructor rejected its arguments.
// It is raised before any I/O takes place.
type ArgumentError struct {
	Command string
	Reason  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument for %s: %s", e.Command, e.Reason)
}

// DumpError indicates a human-monitor memory dump contained a token
// that is not a valid hex byte.
type DumpError struct {
	Token string
}

func (e *DumpError) Error() string {
	return fmt.Sprintf("malformed memory dump: bad token %q", e.Token)
}

// CommandError is an error response from the emulator, carrying the
// QMP error class and human-readable description.
type CommandError struct {
	Class string `json:"class"`
	Desc  string `json:"desc"`
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Desc)
}
