package sequence

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config carries Runner construction options.
type Config struct {
	// AbortOnError stops the plan at the first failed command step.
	// When false, failures are recorded and the plan continues.
	AbortOnError bool

	// Interactive enables the visible wait countdown and the
	// confirmation prompts. Non-interactive runs sleep silently and
	// auto-proceed through confirmation steps.
	Interactive bool

	// Input is where confirmation replies are read from (default
	// os.Stdin).
	Input io.Reader

	// Output is where countdowns and prompts are written (default
	// os.Stdout when Interactive, discarded otherwise).
	Output io.Writer

	// Logger receives step tracing. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// Runner executes plans against a session, one step at a time.
//
// A Runner drives exactly one Caller and is itself single-threaded: the
// only concurrency it introduces is the confirmation input goroutine,
// whose sole shared state is a single-slot channel written at most
// once. Stop is cooperative and takes effect between steps, never
// mid-step, so a running wait or call always completes.
type Runner struct {
	caller Caller
	cfg    Config
	log    zerolog.Logger
	in     io.Reader
	out    io.Writer
	stop   atomic.Bool
}

// NewRunner creates a Runner driving the given caller.
func NewRunner(caller Caller, cfg Config) *Runner {
	in := cfg.Input
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Output
	if out == nil {
		if cfg.Interactive {
			out = os.Stdout
		} else {
			out = io.Discard
		}
	}
	return &Runner{
		caller: caller,
		cfg:    cfg,
		log:    cfg.Logger,
		in:     in,
		out:    out,
	}
}

// Stop requests that the runner stop before the next step. It is safe
// to call from another goroutine; the step currently executing always
// runs to completion.
func (r *Runner) Stop() {
	r.stop.Store(true)
}

// Run executes the plan's steps in order.
//
// With AbortOnError set, the first failed command step stops the plan
// and the returned error matches errors.Is(err, ErrAborted). Otherwise
// every step runs and the failures are returned joined. A declined
// confirmation returns ErrCanceled. A cooperative stop is not an error.
func (r *Runner) Run(plan Plan) error {
	var failures []error

	for i, step := range plan.Steps {
		if r.stop.Load() {
			r.log.Info().Str("plan", plan.Name).Int("step", i+1).Msg("stop requested, ending plan")
			break
		}

		switch step.Kind {
		case StepCommand:
			r.log.Info().Str("plan", plan.Name).Int("step", i+1).Str("name", step.Name).Msg("executing step")
			resp, err := r.caller.Call(step.Command)
			if err == nil && resp.Err != nil {
				err = resp.Err
			}
			if err != nil {
				stepErr := &StepError{Plan: plan.Name, Index: i, Step: step.Name, Err: err}
				if r.cfg.AbortOnError {
					stepErr.Aborted = true
					r.log.Error().Err(err).Str("name", step.Name).Msg("step failed, aborting plan")
					return stepErr
				}
				r.log.Error().Err(err).Str("name", step.Name).Msg("step failed, continuing")
				failures = append(failures, stepErr)
			}

		case StepWait:
			r.wait(step.Wait, "continuing")

		case StepConfirm:
			if !r.cfg.Interactive {
				r.log.Debug().Msg("non-interactive run, skipping confirmation")
				continue
			}
			switch r.confirm(step.Timeout) {
			case OutcomeCancel:
				r.log.Info().Str("plan", plan.Name).Msg("canceled at confirmation prompt")
				return ErrCanceled
			case OutcomeTimeout:
				r.log.Info().Msg("no reply before timeout, proceeding")
			}
		}
	}

	return errors.Join(failures...)
}

// RunCycles executes the plan repeatedly with interCycleDelay between
// cycles. cycles <= 0 repeats until Stop. With AbortOnError unset,
// per-cycle failures are logged and the next cycle still runs; abort
// and cancellation end the loop immediately.
func (r *Runner) RunCycles(plan Plan, cycles int, interCycleDelay time.Duration) error {
	for cycle := 1; ; cycle++ {
		if r.stop.Load() {
			r.log.Info().Str("plan", plan.Name).Msg("stop requested, ending cycles")
			return nil
		}

		r.log.Info().Str("plan", plan.Name).Int("cycle", cycle).Msg("starting cycle")
		if err := r.Run(plan); err != nil {
			if errors.Is(err, ErrAborted) || errors.Is(err, ErrCanceled) {
				return err
			}
			r.log.Error().Err(err).Int("cycle", cycle).Msg("cycle finished with failures")
		}

		if cycles > 0 && cycle >= cycles {
			return nil
		}
		if interCycleDelay > 0 {
			r.wait(interCycleDelay, "next cycle")
		}
	}
}

// wait blocks for the full duration. Interactive runs show a per-second
// countdown; the wait itself is never interruptible, matching the
// between-steps-only stop discipline.
func (r *Runner) wait(d time.Duration, label string) {
	if !r.cfg.Interactive || d < time.Second {
		time.Sleep(d)
		return
	}

	secs := int(d / time.Second)
	for s := secs; s > 0; s-- {
		fmt.Fprintf(r.out, "\r%s in %d seconds...", label, s)
		time.Sleep(time.Second)
	}
	time.Sleep(d % time.Second)
	fmt.Fprintln(r.out)
}

// confirm runs the interactive confirmation gate.
func (r *Runner) confirm(timeout time.Duration) Outcome {
	return awaitConfirmation(r.in, r.out, timeout, r.log)
}
