package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Roasted-Codes/Dedi/sequence"
)

var (
	flagCycles          int
	flagCycleDelay      time.Duration
	flagConfirmTimeout  time.Duration
	flagNoConfirm       bool
	flagContinueOnError bool
)

var runCmd = &cobra.Command{
	Use:   "run <plan>",
	Short: "Run a scripted automation plan",
	Long: `Run one of the built-in automation plans against the emulator.

Available plans:

` + planList() + `
Interactive runs ask for confirmation before starting (auto-proceeding
after --confirm-timeout) and show wait countdowns. Ctrl-C requests a
cooperative stop: the current step finishes, then the plan ends.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, ok := findPlan(args[0])
		if !ok {
			return fmt.Errorf("unknown plan %q, available plans:\n%s", args[0], planList())
		}
		plan := spec.build()

		session, err := openSession()
		if err != nil {
			return err
		}
		defer session.Close()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		runner := sequence.NewRunner(session, sequence.Config{
			AbortOnError: !flagContinueOnError,
			Interactive:  interactive,
			Logger:       logger,
		})

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			logger.Info().Msg("stop requested, finishing current step")
			runner.Stop()
		}()

		if interactive && !flagNoConfirm {
			gate := sequence.Plan{
				Name:  plan.Name,
				Steps: []sequence.Step{sequence.ConfirmStep(flagConfirmTimeout)},
			}
			if err := runner.Run(gate); err != nil {
				if errors.Is(err, sequence.ErrCanceled) {
					fmt.Println("canceled")
					return nil
				}
				return err
			}
		}

		cycleDelay := flagCycleDelay
		if cycleDelay == 0 {
			cycleDelay = spec.cycleDelay
		}

		var runErr error
		switch {
		case spec.cyclic || flagCycles > 1:
			// --cycles 0 on a cyclic plan repeats until stopped.
			runErr = runner.RunCycles(plan, flagCycles, cycleDelay)
		default:
			runErr = runner.Run(plan)
		}
		if errors.Is(runErr, sequence.ErrCanceled) {
			fmt.Println("canceled")
			return nil
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().IntVar(&flagCycles, "cycles", 0, "cycle limit for cyclic plans (0 runs until stopped)")
	runCmd.Flags().DurationVar(&flagCycleDelay, "cycle-delay", 0, "delay between cycles (0 uses the plan default)")
	runCmd.Flags().DurationVar(&flagConfirmTimeout, "confirm-timeout", 30*time.Second, "confirmation prompt timeout")
	runCmd.Flags().BoolVar(&flagNoConfirm, "no-confirm", false, "start without asking for confirmation")
	runCmd.Flags().BoolVar(&flagContinueOnError, "continue-on-error", false, "keep executing steps after a failure")
	rootCmd.AddCommand(runCmd)
}
