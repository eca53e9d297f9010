// Package term picks console status markers for the output stream.
package term

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Glyphs are the status markers printed in front of report lines.
type Glyphs struct {
	OK   string
	Warn string
	Fail string
}

var (
	// Unicode markers for interactive terminals.
	Unicode = Glyphs{OK: "✓", Warn: "⚠", Fail: "✗"}
	// ASCII markers for pipes, files and CI logs.
	ASCII = Glyphs{OK: "OK", Warn: "WARN", Fail: "FAIL"}
)

// For returns Unicode when w is a terminal and ASCII otherwise.
func For(w io.Writer) Glyphs {
	f, ok := w.(*os.File)
	if !ok {
		return ASCII
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return Unicode
	}
	return ASCII
}
