package qmp

import (
	"fmt"
	"time"
)

// Well-known argument defaults.
const (
	// DefaultKeyHold is how long a synthetic key press is held.
	DefaultKeyHold = 250 * time.Millisecond

	// DefaultGamepadDevice is the virtual gamepad xemu exposes. The
	// device must already exist on the emulator side; this client only
	// addresses it by name.
	DefaultGamepadDevice = "usb-xbox-gamepad"
)

// Command is a single QMP request. Use the constructor functions
// (NewStatusCommand, NewSendKeyCommand, etc.) to create instances;
// they validate arguments before any I/O takes place. A Command is
// never mutated after construction.
type Command struct {
	Execute   string         `json:"execute"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Name returns the operation name, for logs and step labels.
func (c Command) Name() string {
	return c.Execute
}

// NewStatusCommand queries the current run state (running/paused).
func NewStatusCommand() Command {
	return Command{Execute: "query-status"}
}

// NewPauseCommand pauses emulation.
func NewPauseCommand() Command {
	return Command{Execute: "stop"}
}

// NewResumeCommand resumes emulation.
func NewResumeCommand() Command {
	return Command{Execute: "cont"}
}

// NewResetCommand resets the emulated machine.
func NewResetCommand() Command {
	return Command{Execute: "system_reset"}
}

// NewScreenshotCommand asks the emulator to dump the screen to filename
// on the emulator's side of the connection.
func NewScreenshotCommand(filename string) (Command, error) {
	if filename == "" {
		return Command{}, &ArgumentError{Command: "screendump", Reason: "filename must not be empty"}
	}
	return Command{
		Execute:   "screendump",
		Arguments: map[string]any{"filename": filename},
	}, nil
}

// NewHumanCommand passes a human-monitor command line through verbatim.
// The response is opaque monitor output text.
func NewHumanCommand(line string) (Command, error) {
	if line == "" {
		return Command{}, &ArgumentError{Command: "human-monitor-command", Reason: "command line must not be empty"}
	}
	return Command{
		Execute:   "human-monitor-command",
		Arguments: map[string]any{"command-line": line},
	}, nil
}

// NewSendKeyCommand injects a keyboard key press identified by its
// qcode symbol (e.g. "ret", "a"), held for the given duration.
func NewSendKeyCommand(key string, hold time.Duration) (Command, error) {
	if key == "" {
		return Command{}, &ArgumentError{Command: "send-key", Reason: "key symbol must not be empty"}
	}
	if hold < 0 {
		return Command{}, &ArgumentError{Command: "send-key", Reason: "hold duration must be non-negative"}
	}
	return Command{
		Execute: "send-key",
		Arguments: map[string]any{
			"keys": []any{
				map[string]any{"type": "qcode", "data": key},
			},
			"hold-time": int(hold / time.Millisecond),
		},
	}, nil
}

// NewButtonCommand injects a gamepad button transition on the named
// virtual input device. down=true presses the button, false releases it.
func NewButtonCommand(device, button string, down bool) (Command, error) {
	if device == "" {
		return Command{}, &ArgumentError{Command: "input-send-event", Reason: "device must not be empty"}
	}
	if button == "" {
		return Command{}, &ArgumentError{Command: "input-send-event", Reason: "button must not be empty"}
	}
	return Command{
		Execute: "input-send-event",
		Arguments: map[string]any{
			"device": device,
			"events": []any{
				map[string]any{
					"type": "btn",
					"data": map[string]any{
						"button": button,
						"down":   down,
					},
				},
			},
		},
	}, nil
}

// NewReadMemoryCommand reads size bytes of guest memory starting at
// addr, via the human-monitor examine command. Decode the response text
// with DecodeMemoryDump.
func NewReadMemoryCommand(addr uint64, size int) (Command, error) {
	if size <= 0 {
		return Command{}, &ArgumentError{Command: "human-monitor-command", Reason: "size must be positive"}
	}
	return NewHumanCommand(fmt.Sprintf("x /%dxb %d", size, addr))
}
