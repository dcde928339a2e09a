package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause emulation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := callOnce(qmp.NewPauseCommand()); err != nil {
			return err
		}
		fmt.Println("paused")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
}
