// Package sequence executes scripted plans of emulator commands and
// waits against a ready QMP session. Plans drive menu flows and
// repeated input patterns (e.g. alternating button presses) that would
// otherwise be done by hand.
package sequence

import (
	"fmt"
	"time"

	"github.com/Roasted-Codes/Dedi/qmp"
)

// Caller issues one command and returns its response. *qmp.Session
// satisfies it; tests substitute a stub.
type Caller interface {
	Call(cmd qmp.Command) (qmp.Response, error)
}

// StepKind is the type of a plan step.
type StepKind int

const (
	// StepCommand issues a command on the session.
	StepCommand StepKind = iota
	// StepWait blocks for a fixed duration.
	StepWait
	// StepConfirm blocks for interactive confirmation with a timeout.
	StepConfirm
)

// Step is one entry of a Plan. Use the constructor functions; only the
// fields relevant to the Kind are populated.
type Step struct {
	Kind StepKind

	// Name labels the step in logs and errors.
	Name string

	// Command is the command to issue (StepCommand).
	Command qmp.Command

	// Wait is how long to block (StepWait).
	Wait time.Duration

	// Timeout bounds the confirmation wait (StepConfirm).
	Timeout time.Duration
}

// CommandStep creates a step that issues cmd. The name labels the step
// in logs; if empty, the command's operation name is used.
func CommandStep(name string, cmd qmp.Command) Step {
	if name == "" {
		name = cmd.Name()
	}
	return Step{Kind: StepCommand, Name: name, Command: cmd}
}

// WaitStep creates a step that blocks for d.
func WaitStep(d time.Duration) Step {
	return Step{Kind: StepWait, Name: fmt.Sprintf("wait %s", d), Wait: d}
}

// ConfirmStep creates a step that asks for confirmation before
// proceeding, auto-proceeding after timeout.
func ConfirmStep(timeout time.Duration) Step {
	return Step{Kind: StepConfirm, Name: "confirm", Timeout: timeout}
}

// Plan is an ordered script of steps. It is created once per run and
// must not be mutated while a Runner executes it.
type Plan struct {
	Name  string
	Steps []Step
}
