package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Roasted-Codes/Dedi/qmp"
	"github.com/Roasted-Codes/Dedi/sequence"
)

// planSpec describes a built-in automation plan.
type planSpec struct {
	name    string
	summary string

	// cyclic plans repeat with cycleDelay between cycles until stopped
	// or a cycle limit is given.
	cyclic     bool
	cycleDelay time.Duration

	build func() sequence.Plan
}

var planSpecs = []planSpec{
	{
		name:    "menu-start",
		summary: "wait for boot, press Return, then A four times (drives host setup menus)",
		build:   buildMenuStartPlan,
	},
	{
		name:       "pass-leader",
		summary:    "tap B then A each cycle, 20s apart (keeps passing party leadership)",
		cyclic:     true,
		cycleDelay: 20 * time.Second,
		build:      buildPassLeaderPlan,
	},
}

func findPlan(name string) (planSpec, bool) {
	for _, spec := range planSpecs {
		if spec.name == name {
			return spec, true
		}
	}
	return planSpec{}, false
}

func planList() string {
	var b strings.Builder
	for _, spec := range planSpecs {
		fmt.Fprintf(&b, "  %-12s %s\n", spec.name, spec.summary)
	}
	return b.String()
}

// mustCommand unwraps a command constructor for plan data whose
// arguments are fixed at compile time.
func mustCommand(cmd qmp.Command, err error) qmp.Command {
	if err != nil {
		panic(err)
	}
	return cmd
}

func buildMenuStartPlan() sequence.Plan {
	steps := []sequence.Step{
		// Give the game time to boot to its main menu.
		sequence.WaitStep(15 * time.Second),
		sequence.CommandStep("press return", mustCommand(qmp.NewSendKeyCommand("return", qmp.DefaultKeyHold))),
	}
	for i := 0; i < 4; i++ {
		steps = append(steps,
			sequence.WaitStep(2*time.Second),
			sequence.CommandStep("press a", mustCommand(qmp.NewSendKeyCommand("a", qmp.DefaultKeyHold))),
		)
	}
	return sequence.Plan{Name: "menu-start", Steps: steps}
}

func buildPassLeaderPlan() sequence.Plan {
	var steps []sequence.Step
	steps = append(steps, tapButtonSteps("b", buttonCodes["b"])...)
	steps = append(steps, sequence.WaitStep(1*time.Second))
	steps = append(steps, tapButtonSteps("a", buttonCodes["a"])...)
	return sequence.Plan{Name: "pass-leader", Steps: steps}
}

// tapButtonSteps models a button tap as press, short hold, release.
func tapButtonSteps(label, code string) []sequence.Step {
	return []sequence.Step{
		sequence.CommandStep("press "+label,
			mustCommand(qmp.NewButtonCommand(qmp.DefaultGamepadDevice, code, true))),
		sequence.WaitStep(100 * time.Millisecond),
		sequence.CommandStep("release "+label,
			mustCommand(qmp.NewButtonCommand(qmp.DefaultGamepadDevice, code, false))),
	}
}
