package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/sync/errgroup"

	"github.com/blendforge/blendforge/internal/buildlog"
)

// repaintInterval is how often the status line refreshes from the stage log.
const repaintInterval = 250 * time.Millisecond

// Reporter renders per-stage liveness feedback. One Reporter serves a whole
// pipeline run; Watch is called once per executing stage.
type Reporter struct {
	out      io.Writer
	caps     TerminalCapabilities
	symbols  Symbols
	disabled bool

	// lastLine reads the most recent captured-output line; injectable for
	// tests. Must never block on the writer.
	lastLine func(path string) string
}

// NewReporter creates a Reporter writing to out. When disabled is true
// (verbose/raw mode) Watch announces nothing and the action's own output is
// expected to pass through.
func NewReporter(out io.Writer, caps TerminalCapabilities, disabled bool) *Reporter {
	return &Reporter{
		out:      out,
		caps:     caps,
		symbols:  SelectSymbols(caps),
		disabled: disabled,
		lastLine: buildlog.LastLine,
	}
}

// Watch begins indicating progress for a stage whose captured output grows at
// logPath. The returned stop function must be called when the action ends
// (success, failure, or interrupt); it cancels the repaint task, joins it,
// and clears the status line. stop is idempotent, so deferred and explicit
// calls cannot double-fire.
func (r *Reporter) Watch(ctx context.Context, title, logPath string) (stop func()) {
	if r.disabled {
		return func() {}
	}

	// Non-interactive destination: a single static announcement instead of
	// repainting, so logs piped to a file stay clean.
	if !r.caps.IsTTY {
		fmt.Fprintf(r.out, "==> %s\n", title)
		return func() {}
	}

	s := spinner.New(spinner.CharSets[r.symbols.SpinnerSet], repaintInterval,
		spinner.WithWriter(r.out))
	s.Suffix = " " + title
	s.Start()

	watchCtx, cancel := context.WithCancel(ctx)
	g := new(errgroup.Group)
	g.Go(func() error {
		r.repaintLoop(watchCtx, s, title, logPath)
		return nil
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = g.Wait()
			// Stop erases the spinner's final partial line.
			s.Stop()
		})
	}
}

// repaintLoop refreshes the spinner suffix with the stage's latest log line
// until cancelled.
func (r *Reporter) repaintLoop(ctx context.Context, s *spinner.Spinner, title, logPath string) {
	ticker := time.NewTicker(repaintInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			line := r.lastLine(logPath)
			// The spinner's paint goroutine reads Suffix under the spinner's
			// own lock; updates must take it too.
			s.Lock()
			s.Suffix = r.statusLine(title, line)
			s.Unlock()
		}
	}
}

// statusLine builds the spinner suffix, truncated to the terminal width so
// repainting never wraps onto a second row.
func (r *Reporter) statusLine(title, line string) string {
	text := " " + title
	if line != "" {
		text = fmt.Sprintf(" %s: %s", title, line)
	}
	if max := r.caps.Width - 4; max > 0 {
		if runes := []rune(text); len(runes) > max {
			text = string(runes[:max])
		}
	}
	return text
}

// Announce prints a one-line stage outcome marker, used after the spinner is
// stopped so completed stages leave a durable line in the scrollback.
func (r *Reporter) Announce(ok bool, title, detail string) {
	if r.disabled {
		return
	}
	mark := r.symbols.Checkmark
	if !ok {
		mark = r.symbols.Failure
	}
	if detail != "" {
		fmt.Fprintf(r.out, "%s %s (%s)\n", mark, title, detail)
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", mark, title)
}
