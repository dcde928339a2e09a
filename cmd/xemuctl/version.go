package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is the client version, overridable at build time with
// -ldflags "-X main.version=...".
var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the xemuctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xemuctl version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
