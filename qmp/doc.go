// Package qmp implements a client for the QEMU Machine Protocol (QMP)
// as exposed by xemu's control socket, used to drive the emulator for
// automated input testing.
//
// # Protocol Overview
//
// QMP is a JSON request/response protocol over a streaming socket.
// Messages carry no length prefix; each is a complete top-level JSON
// document, newline-terminated on the wire, and a single logical
// message may arrive split across any number of TCP segments.
//
//	Request:          {"execute": "<name>", "arguments": {...}}\n
//	Success response: {"return": <value>}
//	Error response:   {"error": {"class": "<class>", "desc": "<message>"}}
//	Async event:      {"event": "<name>", ...}
//
// The first document the server sends is a greeting announcing its
// version and capabilities. The first command a client sends must be
// qmp_capabilities; the Session performs this handshake automatically.
//
// # Basic Usage
//
// Connect to a running emulator and issue commands:
//
//	session, err := qmp.Connect(qmp.DefaultEndpoint(), qmp.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	resp, err := session.Call(qmp.NewStatusCommand())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	status, _ := qmp.DecodeStatus(resp)
//	fmt.Println(status.Status)
//
// Connect retries refused dials with a fixed delay, because automation
// typically races the emulator's control listener coming up.
//
// # Command Types
//
// The command set is fixed and small; each operation has a validating
// constructor:
//
//   - Introspection: NewStatusCommand
//   - Run control: NewPauseCommand, NewResumeCommand, NewResetCommand
//   - Display: NewScreenshotCommand
//   - Input injection: NewSendKeyCommand, NewButtonCommand
//   - Monitor passthrough: NewHumanCommand, NewReadMemoryCommand
//     (decode the dump text with DecodeMemoryDump)
//
// # Call Discipline
//
// The protocol is strictly half-duplex: one command in flight per
// session, write-then-read-exactly-one. Session.Call serializes
// concurrent callers. Unsolicited events the emulator emits on the same
// stream are discarded, never matched against a pending call.
package qmp
