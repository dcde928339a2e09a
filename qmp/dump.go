package qmp

import (
	"strconv"
	"strings"
)

// DecodeMemoryDump converts human-monitor examine output into the raw
// byte sequence it describes.
//
// Monitor output looks like:
//
//	0x1000: 0x41 0x42 0x0a
//	0x1004: 0xff
//
// Each line carries an address prefix up to ": ", then hex byte tokens.
// Carriage returns are stripped first since the monitor emits CRLF line
// endings. A token that does not parse as a hex byte yields a DumpError.
func DecodeMemoryDump(text string) ([]byte, error) {
	text = strings.ReplaceAll(text, "\r", "")

	var data []byte
	for _, line := range strings.Split(text, "\n") {
		// Drop the "<address>: " prefix; a line without one has no data.
		_, rest, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		for _, token := range strings.Fields(rest) {
			b, err := strconv.ParseUint(strings.TrimPrefix(token, "0x"), 16, 8)
			if err != nil {
				return nil, &DumpError{Token: token}
			}
			data = append(data, byte(b))
		}
	}
	return data, nil
}
