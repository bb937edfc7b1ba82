// Package progress renders liveness feedback for long-running stage actions.
// While an action executes, a concurrent reporter repaints a single status
// line combining a spinner glyph, the stage title, and the latest line of the
// stage's captured log. On non-interactive output it degrades to one static
// announcement line per stage.
package progress

import (
	"os"

	"golang.org/x/term"
)

// TerminalCapabilities describes what the output terminal supports.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// Symbols is the glyph set used for stage status rendering.
type Symbols struct {
	Checkmark string
	Failure   string
	// SpinnerSet indexes into briandowns/spinner.CharSets.
	SpinnerSet int
}

// DetectTerminalCapabilities detects terminal features for stdout.
// Checks: stdout isatty, NO_COLOR env, BLENDFORGE_ASCII env, terminal width.
func DetectTerminalCapabilities() TerminalCapabilities {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv("BLENDFORGE_ASCII") == "1"

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// SelectSymbols returns the appropriate symbol set for the capabilities.
// Unicode terminals get braille spinner frames (set 14); everything else
// falls back to ASCII |/-\ (set 9) and bracketed status markers.
func SelectSymbols(caps TerminalCapabilities) Symbols {
	if caps.SupportsUnicode {
		return Symbols{
			Checkmark:  "✓",
			Failure:    "✗",
			SpinnerSet: 14,
		}
	}
	return Symbols{
		Checkmark:  "[OK]",
		Failure:    "[FAIL]",
		SpinnerSet: 9,
	}
}
