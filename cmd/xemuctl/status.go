package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the emulator is running or paused",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := callOnce(qmp.NewStatusCommand())
		if err != nil {
			return err
		}
		status, err := qmp.DecodeStatus(resp)
		if err != nil {
			return err
		}
		fmt.Println(status.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
