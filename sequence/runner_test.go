package sequence

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roasted-Codes/Dedi/qmp"
)

// fakeCaller records commands and fails scripted call indices. onCall,
// when set, runs during each call, before the scripted result is
// returned.
type fakeCaller struct {
	mu     sync.Mutex
	calls  []string
	failAt map[int]error
	errAt  map[int]*qmp.CommandError
	onCall func(index int)
}

func (f *fakeCaller) Call(cmd qmp.Command) (qmp.Response, error) {
	f.mu.Lock()
	index := len(f.calls)
	f.calls = append(f.calls, cmd.Name())
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(index)
	}
	if err := f.failAt[index]; err != nil {
		return qmp.Response{}, err
	}
	if cmdErr := f.errAt[index]; cmdErr != nil {
		return qmp.Response{Err: cmdErr}, nil
	}
	return qmp.Response{Return: json.RawMessage(`{}`)}, nil
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func threeCommandPlan() Plan {
	return Plan{
		Name: "probe",
		Steps: []Step{
			CommandStep("first", qmp.NewStatusCommand()),
			CommandStep("second", qmp.NewPauseCommand()),
			CommandStep("third", qmp.NewResumeCommand()),
		},
	}
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	caller := &fakeCaller{failAt: map[int]error{1: errors.New("boom")}}
	runner := NewRunner(caller, Config{AbortOnError: true})

	err := runner.Run(threeCommandPlan())

	require.ErrorIs(t, err, ErrAborted)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, "second", stepErr.Step)
	assert.True(t, stepErr.Aborted)

	// The third step never ran.
	assert.Equal(t, []string{"query-status", "stop"}, caller.calls)
}

func TestRunContinuesPastFailures(t *testing.T) {
	caller := &fakeCaller{failAt: map[int]error{1: errors.New("boom")}}
	runner := NewRunner(caller, Config{AbortOnError: false})

	err := runner.Run(threeCommandPlan())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAborted)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.False(t, stepErr.Aborted)

	// Every step ran despite the failure.
	assert.Equal(t, []string{"query-status", "stop", "cont"}, caller.calls)
}

func TestRunJoinsMultipleFailures(t *testing.T) {
	caller := &fakeCaller{failAt: map[int]error{
		0: errors.New("first down"),
		2: errors.New("third down"),
	}}
	runner := NewRunner(caller, Config{})

	err := runner.Run(threeCommandPlan())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "first down")
	assert.Contains(t, err.Error(), "third down")
	assert.Equal(t, 3, caller.callCount())
}

func TestRunTreatsCommandErrorAsFailure(t *testing.T) {
	caller := &fakeCaller{errAt: map[int]*qmp.CommandError{
		0: {Class: "GenericError", Desc: "denied"},
	}}
	runner := NewRunner(caller, Config{AbortOnError: true})

	err := runner.Run(threeCommandPlan())

	require.ErrorIs(t, err, ErrAborted)
	var cmdErr *qmp.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "GenericError", cmdErr.Class)
}

func TestRunSucceedsCleanly(t *testing.T) {
	caller := &fakeCaller{}
	runner := NewRunner(caller, Config{AbortOnError: true})

	require.NoError(t, runner.Run(threeCommandPlan()))
	assert.Equal(t, 3, caller.callCount())
}

func TestStopBeforeRun(t *testing.T) {
	caller := &fakeCaller{}
	runner := NewRunner(caller, Config{})
	runner.Stop()

	require.NoError(t, runner.Run(threeCommandPlan()))
	assert.Zero(t, caller.callCount())
}

func TestStopTakesEffectBetweenSteps(t *testing.T) {
	caller := &fakeCaller{}
	runner := NewRunner(caller, Config{})
	// Request the stop during the first call; that step still completes,
	// the remaining steps do not run.
	caller.onCall = func(index int) {
		if index == 0 {
			runner.Stop()
		}
	}

	require.NoError(t, runner.Run(threeCommandPlan()))
	assert.Equal(t, []string{"query-status"}, caller.calls)
}

func TestRunWaitStepSleeps(t *testing.T) {
	caller := &fakeCaller{}
	runner := NewRunner(caller, Config{})
	plan := Plan{Name: "timed", Steps: []Step{
		WaitStep(30 * time.Millisecond),
		CommandStep("after", qmp.NewStatusCommand()),
	}}

	start := time.Now()
	require.NoError(t, runner.Run(plan))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, 1, caller.callCount())
}

func TestRunCanceledAtConfirmation(t *testing.T) {
	caller := &fakeCaller{}
	runner := NewRunner(caller, Config{
		Interactive: true,
		Input:       strings.NewReader("n\n"),
		Output:      &bytes.Buffer{},
	})
	plan := Plan{Name: "gated", Steps: []Step{
		ConfirmStep(5 * time.Second),
		CommandStep("after", qmp.NewStatusCommand()),
	}}

	err := runner.Run(plan)
	require.ErrorIs(t, err, ErrCanceled)
	assert.Zero(t, caller.callCount())
}

func TestRunConfirmationSkippedWhenNonInteractive(t *testing.T) {
	caller := &fakeCaller{}
	runner := NewRunner(caller, Config{Interactive: false})
	plan := Plan{Name: "gated", Steps: []Step{
		ConfirmStep(time.Hour), // must not be waited on
		CommandStep("after", qmp.NewStatusCommand()),
	}}

	done := make(chan error, 1)
	go func() { done <- runner.Run(plan) }()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.Equal(t, 1, caller.callCount())
	case <-time.After(5 * time.Second):
		t.Fatal("non-interactive run blocked on confirmation step")
	}
}

func TestRunCyclesBoundedCount(t *testing.T) {
	caller := &fakeCaller{}
	runner := NewRunner(caller, Config{})
	plan := Plan{Name: "loop", Steps: []Step{
		CommandStep("tick", qmp.NewStatusCommand()),
	}}

	require.NoError(t, runner.RunCycles(plan, 3, 0))
	assert.Equal(t, 3, caller.callCount())
}

func TestRunCyclesStopsCooperatively(t *testing.T) {
	caller := &fakeCaller{}
	runner := NewRunner(caller, Config{})
	caller.onCall = func(index int) {
		if index == 1 {
			runner.Stop()
		}
	}
	plan := Plan{Name: "loop", Steps: []Step{
		CommandStep("tick", qmp.NewStatusCommand()),
	}}

	// Unbounded cycles end without error once Stop is requested.
	require.NoError(t, runner.RunCycles(plan, 0, 0))
	assert.Equal(t, 2, caller.callCount())
}

func TestRunCyclesContinuesPastCycleFailures(t *testing.T) {
	caller := &fakeCaller{failAt: map[int]error{0: errors.New("flaky")}}
	runner := NewRunner(caller, Config{AbortOnError: false})
	plan := Plan{Name: "loop", Steps: []Step{
		CommandStep("tick", qmp.NewStatusCommand()),
	}}

	require.NoError(t, runner.RunCycles(plan, 3, 0))
	assert.Equal(t, 3, caller.callCount())
}

func TestRunCyclesPropagatesAbort(t *testing.T) {
	caller := &fakeCaller{failAt: map[int]error{1: errors.New("fatal")}}
	runner := NewRunner(caller, Config{AbortOnError: true})
	plan := Plan{Name: "loop", Steps: []Step{
		CommandStep("tick", qmp.NewStatusCommand()),
	}}

	err := runner.RunCycles(plan, 5, 0)
	require.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, 2, caller.callCount())
}

func TestStepErrorMessage(t *testing.T) {
	err := &StepError{Plan: "probe", Index: 1, Step: "second", Err: errors.New("boom")}
	assert.EqualError(t, err, `plan "probe" step 2 (second): boom`)
}
