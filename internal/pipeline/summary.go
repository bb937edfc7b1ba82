package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

var (
	summaryDone   = color.New(color.FgGreen).SprintFunc()
	summaryCached = color.New(color.FgCyan).SprintFunc()
	summaryFailed = color.New(color.FgRed, color.Bold).SprintFunc()
	summaryIdle   = color.New(color.Faint).SprintFunc()
)

// WriteSummary renders the per-stage outcome table for a full-pipeline run.
// It is a read-only consumer of the Runner's records; stages the run never
// reached show as "not run".
func WriteSummary(w io.Writer, reg *Registry, records map[string]*Record) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pipeline summary:")

	width := 0
	for _, st := range reg.Stages() {
		if len(st.Title) > width {
			width = len(st.Title)
		}
	}

	var total time.Duration
	for _, st := range reg.Stages() {
		rec := records[st.Key]
		status, detail := summaryCell(rec)
		fmt.Fprintf(w, "  %-*s  %s", width, st.Title, status)
		if detail != "" {
			fmt.Fprintf(w, "  %s", detail)
		}
		fmt.Fprintln(w)
		if rec != nil {
			total += rec.Duration
		}
	}

	if total > 0 {
		fmt.Fprintf(w, "  %-*s  %s\n", width, "total", total.Round(time.Second))
	}
}

// summaryCell maps a record to its status word and optional duration column.
// Skipped stages render "cached" with no duration so they cannot be mistaken
// for a fast measured run.
func summaryCell(rec *Record) (status, detail string) {
	if rec == nil {
		return summaryIdle("not run"), ""
	}
	switch rec.Outcome {
	case OutcomeSucceeded:
		return summaryDone("completed"), rec.Duration.Round(time.Second).String()
	case OutcomeSkipped:
		return summaryCached("cached"), ""
	case OutcomeFailed:
		return summaryFailed("failed"), rec.Duration.Round(time.Second).String()
	default:
		return summaryIdle("not run"), ""
	}
}
