package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume emulation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := callOnce(qmp.NewResumeCommand()); err != nil {
			return err
		}
		fmt.Println("resumed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
