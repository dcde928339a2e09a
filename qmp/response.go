package qmp

import (
	"encoding/json"
)

// Response is the emulator's answer to a single command: either a
// success value or an error descriptor, never both.
type Response struct {
	// Return holds the raw success value when the command succeeded.
	// For acknowledgement-only commands this is the empty object.
	Return json.RawMessage

	// Err is the error descriptor when the command failed.
	Err *CommandError
}

// OK reports whether the command succeeded.
func (r Response) OK() bool {
	return r.Err == nil
}

// Decode unmarshals the success value into v.
func (r Response) Decode(v any) error {
	if r.Err != nil {
		return r.Err
	}
	if err := json.Unmarshal(r.Return, v); err != nil {
		return &ProtocolError{Reason: "undecodable return value", Raw: r.Return}
	}
	return nil
}

// Text returns the success value as a string. Human-monitor passthrough
// commands return their output this way.
func (r Response) Text() (string, error) {
	var s string
	if err := r.Decode(&s); err != nil {
		return "", err
	}
	return s, nil
}

// responseEnvelope mirrors the wire shapes a server can send after
// negotiation: responses ("return"/"error") and async events ("event").
type responseEnvelope struct {
	Return json.RawMessage `json:"return"`
	Error  *CommandError   `json:"error"`
	Event  string          `json:"event"`
}

// isEvent reports whether a document is an unsolicited async event.
// Events share the stream with responses but are never the answer to a
// command, so Call discards them rather than mismatching them against
// the pending request.
func isEvent(raw json.RawMessage) bool {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	return env.Event != ""
}

// decodeResponse decodes a response document. A document with neither a
// return nor an error field is not a valid response.
func decodeResponse(raw json.RawMessage) (Response, error) {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Response{}, &ProtocolError{Reason: "undecodable response", Raw: raw}
	}
	if env.Return == nil && env.Error == nil {
		return Response{}, &ProtocolError{Reason: "response has neither return nor error", Raw: raw}
	}
	return Response{Return: env.Return, Err: env.Error}, nil
}

// RunStatus is the result of a query-status command.
type RunStatus struct {
	Running bool   `json:"running"`
	Status  string `json:"status"`
}

// Paused reports whether the emulator is paused.
func (s RunStatus) Paused() bool {
	return s.Status == "paused"
}

// DecodeStatus decodes a query-status response.
func DecodeStatus(resp Response) (RunStatus, error) {
	var status RunStatus
	if err := resp.Decode(&status); err != nil {
		return RunStatus{}, err
	}
	return status, nil
}
