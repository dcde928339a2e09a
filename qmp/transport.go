package qmp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// readChunkSize is the size of a single read from the socket. A logical
// message may span many chunks, and one chunk may carry several messages.
const readChunkSize = 4096

// Transport owns a single streaming control connection and reassembles
// the byte stream into complete JSON documents.
//
// QMP provides no length prefix; the only framing signal is that each
// message is a complete top-level JSON document. ReadMessage therefore
// accumulates bytes and trial-parses the buffer after every chunk.
type Transport struct {
	conn net.Conn
	buf  []byte

	// readTimeout, when positive, bounds each ReadMessage call with a
	// read deadline. Zero means block until the peer sends data, which
	// matches the emulator's observed behavior.
	readTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Open establishes a TCP connection to the control endpoint.
func Open(endpoint Endpoint, dialTimeout time.Duration) (*Transport, error) {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	conn, err := net.DialTimeout("tcp", endpoint.Addr(), dialTimeout)
	if err != nil {
		return nil, NewConnectionError("dial", err)
	}
	return NewTransport(conn), nil
}

// NewTransport wraps an already-established connection. Open is the
// usual path; this exists so the framing can be driven over a pipe.
func NewTransport(conn net.Conn) *Transport {
	return &Transport{conn: conn}
}

// SetReadTimeout sets the per-message read deadline. Zero disables it.
func (t *Transport) SetReadTimeout(d time.Duration) {
	t.readTimeout = d
}

// ReadMessage returns the next complete JSON document from the stream.
//
// It returns ErrTruncated if the peer closes the stream before a
// complete document is seen, ErrMessageTooLarge if the accumulated
// buffer exceeds MaxMessageSize, and a ProtocolError if the stream
// carries bytes that cannot be the prefix of a JSON document.
func (t *Transport) ReadMessage() (json.RawMessage, error) {
	chunk := make([]byte, readChunkSize)
	for {
		msg, err := t.extract()
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}

		if len(t.buf) >= MaxMessageSize {
			return nil, ErrMessageTooLarge
		}

		if t.readTimeout > 0 {
			t.conn.SetReadDeadline(time.Now().Add(t.readTimeout))
		} else {
			t.conn.SetReadDeadline(time.Time{})
		}

		n, readErr := t.conn.Read(chunk)
		if n > 0 {
			t.buf = append(t.buf, chunk[:n]...)
		}
		if readErr != nil {
			// The final chunk may have completed a document.
			msg, err := t.extract()
			if err != nil {
				return nil, err
			}
			if msg != nil {
				return msg, nil
			}
			if errors.Is(readErr, io.EOF) ||
				errors.Is(readErr, io.ErrClosedPipe) ||
				errors.Is(readErr, net.ErrClosed) {
				return nil, ErrTruncated
			}
			return nil, NewConnectionError("read", readErr)
		}
	}
}

// extract trial-parses the front of the buffer as one JSON document.
// It returns (nil, nil) when the buffered data is an incomplete prefix,
// leaving the buffer untouched for the next chunk. On success the
// consumed bytes are removed, so a second document arriving in the same
// chunk stays buffered for the next call.
func (t *Transport) extract() (json.RawMessage, error) {
	data := bytes.TrimLeft(t.buf, " \t\r\n")
	if len(data) == 0 {
		t.buf = t.buf[:0]
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil // need more bytes
		}
		return nil, &ProtocolError{Reason: "undecodable message", Raw: append([]byte(nil), data...)}
	}

	t.buf = append(t.buf[:0], data[dec.InputOffset():]...)
	return raw, nil
}

// WriteMessage serializes v as JSON and writes it followed by a newline.
func (t *Transport) WriteMessage(v any) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return NewConnectionError("write", net.ErrClosed)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	data = append(data, '\n')

	if _, err := t.conn.Write(data); err != nil {
		return NewConnectionError("write", err)
	}
	return nil
}

// Close releases the underlying connection. It is safe to call multiple
// times.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.conn.Close(); err != nil {
		return NewConnectionError("close", err)
	}
	return nil
}
