package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Roasted-Codes/Dedi/qmp"
)

const monitorPrompt = "(xemu) "

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive human-monitor shell",
	Long: `Open an interactive shell that passes each line through to the
emulator's human monitor and prints the result.

Dot-commands handled locally:

  .status    report run state
  .pause     pause emulation
  .resume    resume emulation
  .quit      leave the shell`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession()
		if err != nil {
			return err
		}
		defer session.Close()

		fmt.Printf("connected to %s (QEMU %s), .quit to leave\n",
			session.Endpoint(), session.Greeting().Version)

		next, closeInput, err := lineSource()
		if err != nil {
			return err
		}
		defer closeInput()

		for {
			line, err := next()
			if err != nil {
				if err == io.EOF {
					fmt.Println()
					return nil
				}
				return err
			}

			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, ".") {
				if quit := monitorDotCommand(session, line); quit {
					return nil
				}
				continue
			}

			human, err := qmp.NewHumanCommand(line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			resp, err := session.Call(human)
			if err != nil {
				return err
			}
			if resp.Err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", resp.Err)
				continue
			}
			text, err := resp.Text()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			if text != "" {
				fmt.Print(strings.ReplaceAll(text, "\r", ""))
				if !strings.HasSuffix(text, "\n") {
					fmt.Println()
				}
			}
		}
	},
}

// lineSource returns a reader function for monitor input: readline with
// history when stdin is a terminal, a plain scanner for piped input.
func lineSource() (next func() (string, error), closeInput func(), err error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		scanner := bufio.NewScanner(os.Stdin)
		return func() (string, error) {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.EOF
			}
			return scanner.Text(), nil
		}, func() {}, nil
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:       monitorPrompt,
		HistoryLimit: 500,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("readline init: %w", err)
	}
	return func() (string, error) {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return line, err
	}, func() { rl.Close() }, nil
}

// monitorDotCommand handles local dot-commands. Returns true when the
// shell should exit.
func monitorDotCommand(session *qmp.Session, line string) bool {
	switch line {
	case ".quit", ".q":
		return true
	case ".status":
		resp, err := session.Call(qmp.NewStatusCommand())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		if status, err := qmp.DecodeStatus(resp); err == nil {
			fmt.Println(status.Status)
		}
	case ".pause":
		if _, err := session.Call(qmp.NewPauseCommand()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Println("paused")
		}
	case ".resume":
		if _, err := session.Call(qmp.NewResumeCommand()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Println("resumed")
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %s (try .status .pause .resume .quit)\n", line)
	}
	return false
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
