package qmp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateDisconnected is the initial state before any dial attempt.
	StateDisconnected State = iota
	// StateConnecting means a transport is open but the greeting has
	// not been consumed yet.
	StateConnecting
	// StateNegotiating means the greeting was read and the capability
	// handshake is in flight.
	StateNegotiating
	// StateReady means the session can issue commands.
	StateReady
	// StateClosed is terminal. Construct a new Session to reconnect.
	StateClosed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateNegotiating:
		return "negotiating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config carries Session construction options. The zero value gets
// sensible defaults.
type Config struct {
	// MaxAttempts is the connection retry budget (default
	// DefaultMaxAttempts). The emulator's control listener often is not
	// up yet when automation starts, so the first dials may be refused.
	MaxAttempts int

	// RetryDelay is the fixed delay between attempts (default
	// DefaultRetryDelay).
	RetryDelay time.Duration

	// DialTimeout bounds a single dial (default DefaultDialTimeout).
	DialTimeout time.Duration

	// ReadTimeout, when positive, bounds each protocol read. The
	// default of zero blocks forever on a silent peer, matching the
	// emulator's observed behavior; set it to guard against a hung
	// emulator.
	ReadTimeout time.Duration

	// Logger receives connection and call tracing. Defaults to a
	// no-op logger.
	Logger zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	return c
}

// dialFunc opens a transport to the endpoint. Tests substitute this to
// exercise the retry policy without real sockets.
type dialFunc func(endpoint Endpoint, timeout time.Duration) (*Transport, error)

// Session owns one control connection through its whole lifecycle:
// connect with bounded retry, greeting consumption, capability
// negotiation, and the half-duplex command/response exchange.
//
// A Session that fails or is closed stays closed; reconnection means
// constructing a new Session. The mutex serializes Call so that exactly
// one command is ever in flight (QMP is strictly write-then-read).
type Session struct {
	endpoint Endpoint
	cfg      Config
	log      zerolog.Logger
	dial     dialFunc

	// callMu enforces the half-duplex discipline: one command in
	// flight at a time, write-then-read-exactly-one.
	callMu sync.Mutex

	// mu guards the lifecycle state and transport pointer.
	mu       sync.Mutex
	state    State
	tr       *Transport
	greeting Greeting
}

// Connect establishes a session to the control endpoint, retrying the
// dial up to cfg.MaxAttempts times with cfg.RetryDelay between
// failures. The greeting is consumed and capabilities negotiated before
// Connect returns; the session is Ready on success.
func Connect(endpoint Endpoint, cfg Config) (*Session, error) {
	s := &Session{
		endpoint: endpoint,
		cfg:      cfg.withDefaults(),
		log:      cfg.Logger.With().Str("endpoint", endpoint.Addr()).Logger(),
		dial:     Open,
		state:    StateDisconnected,
	}
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// connect runs the dial-retry loop and the protocol handshake.
func (s *Session) connect() error {
	var tr *Transport
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(s.cfg.RetryDelay)
		}
		s.log.Debug().Int("attempt", attempt).Msg("connecting")

		var err error
		tr, err = s.dial(s.endpoint, s.cfg.DialTimeout)
		if err == nil {
			break
		}
		lastErr = err
		s.log.Debug().Err(err).Int("attempt", attempt).Msg("connection attempt failed")
		tr = nil
	}
	if tr == nil {
		return &UnavailableError{Endpoint: s.endpoint, Attempts: s.cfg.MaxAttempts, Err: lastErr}
	}

	tr.SetReadTimeout(s.cfg.ReadTimeout)
	s.mu.Lock()
	s.tr = tr
	s.state = StateConnecting
	s.mu.Unlock()

	// The greeting is the first document on the wire, consumed exactly
	// once and never re-requested.
	raw, err := tr.ReadMessage()
	if err != nil {
		s.failClose()
		return &NegotiationError{Err: fmt.Errorf("reading greeting: %w", err)}
	}
	greeting, err := parseGreeting(raw)
	if err != nil {
		s.failClose()
		return &NegotiationError{Err: err}
	}

	s.mu.Lock()
	s.greeting = greeting
	s.state = StateNegotiating
	s.mu.Unlock()

	// Capability negotiation must be the first command; the server
	// rejects everything else until it has been accepted.
	if err := tr.WriteMessage(Command{Execute: negotiateCommand}); err != nil {
		s.failClose()
		return &NegotiationError{Err: err}
	}
	resp, err := s.readResponse(tr)
	if err != nil {
		s.failClose()
		return &NegotiationError{Err: err}
	}
	if resp.Err != nil {
		s.failClose()
		return &NegotiationError{Err: resp.Err}
	}

	s.mu.Lock()
	s.state = StateReady
	s.mu.Unlock()

	s.log.Info().
		Str("version", greeting.Version.String()).
		Str("package", greeting.Package).
		Msg("connected")
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Endpoint returns the endpoint this session was constructed for.
func (s *Session) Endpoint() Endpoint {
	return s.endpoint
}

// Greeting returns the greeting consumed during connect. Valid once the
// session has reached Negotiating.
func (s *Session) Greeting() Greeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.greeting
}

// Call sends one command and blocks until its response arrives.
//
// Calls are serialized: a second concurrent Call waits for the first to
// complete rather than interleaving on the wire. Async events arriving
// while a call is pending are discarded, never mismatched as the
// response. A transport failure mid-call closes the session and returns
// an error wrapping ErrDisconnected.
func (s *Session) Call(cmd Command) (Response, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	s.mu.Lock()
	state, tr := s.state, s.tr
	s.mu.Unlock()
	if state != StateReady {
		return Response{}, fmt.Errorf("%w (state %s)", ErrNotReady, state)
	}

	s.log.Debug().Str("command", cmd.Name()).Msg("sending command")
	if err := tr.WriteMessage(cmd); err != nil {
		_ = s.Close()
		return Response{}, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}

	resp, err := s.readResponse(tr)
	if err != nil {
		if errors.Is(err, ErrTruncated) || isConnError(err) {
			_ = s.Close()
			return Response{}, fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
		return Response{}, err
	}
	if resp.Err != nil {
		s.log.Debug().Str("command", cmd.Name()).Str("class", resp.Err.Class).Msg("command rejected")
	}
	return resp, nil
}

// readResponse reads documents until one is a response, skipping async
// events the emulator may interleave on the stream.
func (s *Session) readResponse(tr *Transport) (Response, error) {
	for {
		raw, err := tr.ReadMessage()
		if err != nil {
			return Response{}, err
		}
		if isEvent(raw) {
			s.log.Debug().RawJSON("event", raw).Msg("discarding async event")
			continue
		}
		return decodeResponse(raw)
	}
}

// Close transitions the session to Closed and releases the transport.
// It is safe to call multiple times and on sessions that never became
// Ready.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	if s.tr == nil {
		return nil
	}
	err := s.tr.Close()
	s.tr = nil
	return err
}

// failClose releases the transport after a handshake failure.
func (s *Session) failClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.closeLocked()
}

// isConnError reports whether err is a socket-level failure.
func isConnError(err error) bool {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}
