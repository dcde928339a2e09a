package sequence

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Outcome is the result of a confirmation wait. Exactly one outcome
// occurs per invocation; the prompt is not re-askable mid-wait.
type Outcome int

const (
	// OutcomeProceed means the user confirmed, or gave input that
	// could not be recognized (treated as consent with a warning).
	OutcomeProceed Outcome = iota
	// OutcomeCancel means the user explicitly declined.
	OutcomeCancel
	// OutcomeTimeout means no reply arrived in time; callers treat
	// this as implicit consent so unattended runs never hang.
	OutcomeTimeout
)

// awaitConfirmation prompts on out and waits up to timeout for a reply
// on in.
//
// The reply is gathered by a goroutine that writes a single-slot
// channel at most once; the main flow selects between that completion
// and timer expiry, so the countdown never blocks on input. When the
// timer wins, the reader goroutine is abandoned — it holds no state
// beyond the channel send that nobody will receive.
func awaitConfirmation(in io.Reader, out io.Writer, timeout time.Duration, log zerolog.Logger) Outcome {
	fmt.Fprintf(out, "Proceed? [Y/n] (auto-proceeds in %d seconds): ", int(timeout/time.Second))

	reply := make(chan string, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return
		}
		reply <- strings.ToLower(strings.TrimSpace(line))
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	deadline := time.Now().Add(timeout)
	for {
		select {
		case input := <-reply:
			fmt.Fprintln(out)
			switch input {
			case "y", "yes", "":
				return OutcomeProceed
			case "n", "no":
				return OutcomeCancel
			default:
				log.Warn().Str("input", input).Msg("unrecognized reply, proceeding")
				return OutcomeProceed
			}
		case <-timer.C:
			fmt.Fprintln(out)
			return OutcomeTimeout
		case <-ticker.C:
			remaining := int(time.Until(deadline) / time.Second)
			if remaining > 0 {
				fmt.Fprintf(out, "\rProceed? [Y/n] (auto-proceeds in %d seconds): ", remaining)
			}
		}
	}
}
