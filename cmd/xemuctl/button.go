package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

// buttonCodes maps friendly names to the xid gamepad button numbering
// that xemu's usb-xbox-gamepad device expects. Unknown names are passed
// through verbatim so raw codes keep working.
var buttonCodes = map[string]string{
	"a":     "0",
	"b":     "1",
	"x":     "2",
	"y":     "3",
	"black": "4",
	"white": "5",
	"start": "6",
	"back":  "7",
}

func resolveButton(name string) string {
	if code, ok := buttonCodes[strings.ToLower(name)]; ok {
		return code
	}
	return name
}

var (
	flagButtonDevice string
	flagButtonHold   time.Duration
)

var buttonCmd = &cobra.Command{
	Use:   "button <name>",
	Short: "Tap a gamepad button",
	Long: `Press and release a button on the virtual gamepad. The button may be
a friendly name (a, b, x, y, black, white, start, back) or a raw xid
button code. The virtual gamepad device must already exist on the
emulator side; xemuctl only addresses it by name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := resolveButton(args[0])

		press, err := qmp.NewButtonCommand(flagButtonDevice, code, true)
		if err != nil {
			return err
		}
		release, err := qmp.NewButtonCommand(flagButtonDevice, code, false)
		if err != nil {
			return err
		}

		session, err := openSession()
		if err != nil {
			return err
		}
		defer session.Close()

		if resp, err := session.Call(press); err != nil {
			return err
		} else if resp.Err != nil {
			return resp.Err
		}
		time.Sleep(flagButtonHold)
		if resp, err := session.Call(release); err != nil {
			return err
		} else if resp.Err != nil {
			return resp.Err
		}

		fmt.Printf("tapped button %s\n", args[0])
		return nil
	},
}

func init() {
	buttonCmd.Flags().StringVar(&flagButtonDevice, "device", qmp.DefaultGamepadDevice, "virtual input device name")
	buttonCmd.Flags().DurationVar(&flagButtonHold, "hold", 100*time.Millisecond, "delay between press and release")
	rootCmd.AddCommand(buttonCmd)
}
