package tui

import (
	"fmt"
	"io"

	"shrink/internal/processor"
)

// PrintPlain writes every update line to w until updates is closed. It is
// the display used when stdout is not a terminal.
func PrintPlain(w io.Writer, updates <-chan processor.ProgressUpdate) {
	for u := range updates {
		if u.Line != "" {
			fmt.Fprintln(w, u.Line)
		}
	}
}
