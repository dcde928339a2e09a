package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Roasted-Codes/Dedi/qmp"
)

var readmemCmd = &cobra.Command{
	Use:   "readmem <addr> <size>",
	Short: "Read guest memory",
	Long: `Read size bytes of guest memory starting at addr (decimal or 0x-hex)
via the human monitor, and print them as a hex dump.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", args[0], err)
		}
		size, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", args[1], err)
		}

		read, err := qmp.NewReadMemoryCommand(addr, size)
		if err != nil {
			return err
		}
		resp, err := callOnce(read)
		if err != nil {
			return err
		}
		text, err := resp.Text()
		if err != nil {
			return err
		}
		data, err := qmp.DecodeMemoryDump(text)
		if err != nil {
			return err
		}

		fmt.Print(hex.Dump(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readmemCmd)
}
