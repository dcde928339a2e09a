package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

var flagKeyHold time.Duration

var keyCmd = &cobra.Command{
	Use:   "key <symbol>",
	Short: "Inject a keyboard key press",
	Long: `Inject a key press identified by its QEMU qcode symbol, for example
"ret", "a", or "spc". The key is held for --hold and then released by
the emulator.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		press, err := qmp.NewSendKeyCommand(args[0], flagKeyHold)
		if err != nil {
			return err
		}
		if _, err := callOnce(press); err != nil {
			return err
		}
		fmt.Printf("sent key %q\n", args[0])
		return nil
	},
}

func init() {
	keyCmd.Flags().DurationVar(&flagKeyHold, "hold", qmp.DefaultKeyHold, "how long the key is held")
	rootCmd.AddCommand(keyCmd)
}
