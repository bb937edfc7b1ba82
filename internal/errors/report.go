package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/blendforge/blendforge/internal/buildlog"
)

// TailLines is how many trailing log lines a failure report includes.
const TailLines = 20

// PrintRunFailure is the single failure boundary's output path. It renders a
// delimited failure banner for a stage failure, or a categorized error block
// for everything else, exactly once per failing run. The original error is
// not modified; callers still propagate it for exit-status mapping.
func PrintRunFailure(w io.Writer, err error) {
	if err == nil {
		return
	}

	if sf := AsStageFailure(err); sf != nil {
		printStageFailure(w, sf)
		return
	}

	if cliErr := AsCLIError(err); cliErr != nil {
		FprintError(w, cliErr)
		return
	}

	FprintError(w, &CLIError{Category: Runtime, Message: err.Error()})
}

func printStageFailure(w io.Writer, sf *StageFailure) {
	rule := strings.Repeat("=", 62)

	fmt.Fprintln(w, bannerLine(rule))
	fmt.Fprintf(w, "%s stage %s (%s)\n", errorLabel("FAILED:"), sf.Stage, sf.Kind)
	if sf.Kind == ValidationFailed {
		fmt.Fprintf(w, "  action succeeded but post-condition check failed: %s\n", sf.Reason)
	} else if sf.ExitCode >= 0 {
		fmt.Fprintf(w, "  exit status %d\n", sf.ExitCode)
	} else if sf.Err != nil {
		fmt.Fprintf(w, "  %v\n", sf.Err)
	}
	fmt.Fprintln(w, bannerLine(rule))

	if lines := buildlog.Tail(sf.LogPath, TailLines); len(lines) > 0 {
		fmt.Fprintf(w, "\nLast %d lines of %s:\n", len(lines), sf.LogPath)
		for _, line := range lines {
			fmt.Fprintf(w, "  %s\n", dimText(line))
		}
	}

	if rem := StageRemediation(sf.Stage, sf.Kind); len(rem) > 0 {
		var sb strings.Builder
		writeRemediation(&sb, rem, true)
		fmt.Fprint(w, sb.String())
	}
}
