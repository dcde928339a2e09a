package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot <filename>",
	Short: "Dump the emulator screen to a file",
	Long: `Dump the current screen to a PPM file. The path is interpreted by
the emulator process, so it must be writable on the machine xemu runs on.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shot, err := qmp.NewScreenshotCommand(args[0])
		if err != nil {
			return err
		}
		if _, err := callOnce(shot); err != nil {
			return err
		}
		fmt.Printf("screen dumped to %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
}
