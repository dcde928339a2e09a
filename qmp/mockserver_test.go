package qmp

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"testing"
)

// mockGreeting is the first document the mock server sends, shaped like
// a real xemu greeting.
const mockGreeting = `{"QMP": {"version": {"qemu": {"major": 7, "minor": 2, "micro": 4}, "package": "xemu-0.7.131"}, "capabilities": ["oob"]}}`

// closeConn is a sentinel reply: instead of sending a document, the
// mock server closes the client connection, simulating a peer that
// drops mid-call.
type closeConnMarker struct{}

var closeConn = closeConnMarker{}

// mockHandler returns the documents to send in reply to one command.
// Returning multiple documents lets tests interleave async events
// before the actual response.
type mockHandler func(cmd Command) []any

// okDoc wraps v in a success envelope.
func okDoc(v any) any {
	return map[string]any{"return": v}
}

// errDoc builds an error envelope.
func errDoc(class, desc string) any {
	return map[string]any{"error": map[string]any{"class": class, "desc": desc}}
}

// eventDoc builds an async event document.
func eventDoc(name string) any {
	return map[string]any{"event": name, "timestamp": map[string]any{"seconds": 0, "microseconds": 0}}
}

// negotiated wraps a handler so it accepts the qmp_capabilities
// handshake and delegates everything else.
func negotiated(h mockHandler) mockHandler {
	return func(cmd Command) []any {
		if cmd.Execute == negotiateCommand {
			return []any{okDoc(map[string]any{})}
		}
		return h(cmd)
	}
}

// defaultMockHandler accepts negotiation, answers query-status with a
// running state, and acknowledges everything else with an empty return.
func defaultMockHandler(cmd Command) []any {
	switch cmd.Execute {
	case negotiateCommand:
		return []any{okDoc(map[string]any{})}
	case "query-status":
		return []any{okDoc(map[string]any{"running": true, "status": "running"})}
	default:
		return []any{okDoc(map[string]any{})}
	}
}

// mockServer is a lightweight stand-in for the emulator's QMP
// listener. It speaks just enough of the protocol for client tests:
// greeting on accept, then one handler invocation per received command.
type mockServer struct {
	listener net.Listener
	handler  mockHandler

	mu    sync.Mutex
	conns []net.Conn
	wg    sync.WaitGroup
}

// startMockServer starts a mock QMP server on a loopback port. It is
// shut down automatically when the test finishes. A nil handler uses
// defaultMockHandler.
func startMockServer(t *testing.T, handler mockHandler) *mockServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	if handler == nil {
		handler = defaultMockHandler
	}

	ms := &mockServer{listener: listener, handler: handler}
	ms.wg.Add(1)
	go ms.acceptLoop()
	t.Cleanup(ms.stop)
	return ms
}

// endpoint returns the endpoint clients should connect to.
func (ms *mockServer) endpoint() Endpoint {
	addr := ms.listener.Addr().(*net.TCPAddr)
	return Endpoint{Host: "127.0.0.1", Port: addr.Port}
}

func (ms *mockServer) acceptLoop() {
	defer ms.wg.Done()
	for {
		conn, err := ms.listener.Accept()
		if err != nil {
			return // listener closed
		}
		ms.mu.Lock()
		ms.conns = append(ms.conns, conn)
		ms.mu.Unlock()

		ms.wg.Add(1)
		go ms.handleConn(conn)
	}
}

func (ms *mockServer) handleConn(conn net.Conn) {
	defer ms.wg.Done()

	if _, err := conn.Write([]byte(mockGreeting + "\n")); err != nil {
		return
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			continue
		}
		for _, doc := range ms.handler(cmd) {
			if _, isClose := doc.(closeConnMarker); isClose {
				conn.Close()
				return
			}
			data, err := json.Marshal(doc)
			if err != nil {
				continue
			}
			if _, err := conn.Write(append(data, '\n')); err != nil {
				return
			}
		}
	}
}

func (ms *mockServer) stop() {
	ms.listener.Close()

	ms.mu.Lock()
	for _, conn := range ms.conns {
		conn.Close()
	}
	ms.conns = nil
	ms.mu.Unlock()

	ms.wg.Wait()
}
