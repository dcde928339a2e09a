package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the emulated machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := callOnce(qmp.NewResetCommand()); err != nil {
			return err
		}
		fmt.Println("reset requested")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
