package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

var (
	flagHost       string
	flagPort       int
	flagRetries    int
	flagRetryDelay time.Duration
	flagTimeout    time.Duration
	flagLogLevel   string

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xemuctl",
	Short: "Drive a xemu instance over its QMP control socket",
	Long: `xemuctl connects to the QMP control port of a running xemu instance
and issues run-control, screenshot, and synthetic input commands, either
one-shot or as scripted automation sequences.

Start xemu with the control listener enabled:

  xemu -qmp tcp:localhost:4444,server,nowait`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(flagLogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).
			With().Timestamp().Logger()
		return nil
	},
}

// Execute runs the CLI. Exit status is 0 on full success and 1 on
// connection failure or any unrecoverable call failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagHost, "host", qmp.DefaultHost, "control socket host")
	pf.IntVar(&flagPort, "port", qmp.DefaultPort, "control socket port")
	pf.IntVar(&flagRetries, "retries", qmp.DefaultMaxAttempts, "connection attempts before giving up")
	pf.DurationVar(&flagRetryDelay, "retry-delay", qmp.DefaultRetryDelay, "delay between connection attempts")
	pf.DurationVar(&flagTimeout, "timeout", 0, "protocol read timeout (0 waits forever)")
	pf.StringVar(&flagLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

func endpoint() qmp.Endpoint {
	return qmp.Endpoint{Host: flagHost, Port: flagPort}
}

// openSession connects to the configured endpoint with the configured
// retry policy. The caller owns the session and must close it.
func openSession() (*qmp.Session, error) {
	return qmp.Connect(endpoint(), qmp.Config{
		MaxAttempts: flagRetries,
		RetryDelay:  flagRetryDelay,
		ReadTimeout: flagTimeout,
		Logger:      logger,
	})
}

// callOnce opens a session, issues a single command, and closes the
// session again. Most subcommands are exactly this shape.
func callOnce(cmd qmp.Command) (qmp.Response, error) {
	session, err := openSession()
	if err != nil {
		return qmp.Response{}, err
	}
	defer session.Close()

	resp, err := session.Call(cmd)
	if err != nil {
		return qmp.Response{}, err
	}
	if resp.Err != nil {
		return resp, resp.Err
	}
	return resp, nil
}
