package qmp

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Protocol constants.
const (
	// DefaultHost is the host xemu listens on when started with
	// -qmp tcp:localhost:4444,server,nowait.
	DefaultHost = "localhost"

	// DefaultPort is the conventional QMP control port.
	DefaultPort = 4444

	// DefaultMaxAttempts is how many times Connect dials before giving
	// up. The emulator's control listener comes up some time after the
	// process starts, so the first attempts routinely fail.
	DefaultMaxAttempts = 5

	// DefaultRetryDelay is the fixed delay between connection attempts.
	DefaultRetryDelay = 1 * time.Second

	// DefaultDialTimeout bounds a single TCP dial.
	DefaultDialTimeout = 5 * time.Second

	// MaxMessageSize caps the framing buffer. A peer that streams bytes
	// without ever completing a JSON document fails the read instead of
	// growing the buffer without bound.
	MaxMessageSize = 1 << 20

	// negotiateCommand is the capabilities handshake that must be the
	// first command on every session.
	negotiateCommand = "qmp_capabilities"
)

// Endpoint identifies the control socket of an emulator instance.
// It is fixed for the lifetime of a Session.
type Endpoint struct {
	Host string
	Port int
}

// DefaultEndpoint returns the conventional local control endpoint.
func DefaultEndpoint() Endpoint {
	return Endpoint{Host: DefaultHost, Port: DefaultPort}
}

// Addr returns the endpoint in host:port form suitable for dialing.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	return e.Addr()
}

// Version is the emulator version triple announced in the greeting.
type Version struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Micro int `json:"micro"`
}

// String formats the version as "major.minor.micro".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// Greeting is the first message the server sends after accepting a
// connection. It is consumed exactly once per session and never
// re-requested.
type Greeting struct {
	Version      Version
	Package      string
	Capabilities []string
}

// greetingEnvelope mirrors the wire shape {"QMP": {...}}.
type greetingEnvelope struct {
	QMP *struct {
		Version struct {
			QEMU    Version `json:"qemu"`
			Package string  `json:"package"`
		} `json:"version"`
		Capabilities []string `json:"capabilities"`
	} `json:"QMP"`
}

// parseGreeting decodes the greeting document. A document without the
// top-level QMP key is not a greeting.
func parseGreeting(raw json.RawMessage) (Greeting, error) {
	var env greetingEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Greeting{}, &ProtocolError{Reason: "malformed greeting", Raw: raw}
	}
	if env.QMP == nil {
		return Greeting{}, &ProtocolError{Reason: "first message is not a QMP greeting", Raw: raw}
	}
	return Greeting{
		Version:      env.QMP.Version.QEMU,
		Package:      env.QMP.Version.Package,
		Capabilities: env.QMP.Capabilities,
	}, nil
}
