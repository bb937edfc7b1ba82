package buildlog

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// TimestampedWriter wraps an io.Writer and prefixes each complete line with a
// [HH:MM:SS] timestamp. It is safe for concurrent use and buffers partial
// lines until a newline arrives, so interleaved chunked writes from a
// subprocess still produce one timestamp per line.
type TimestampedWriter struct {
	w       io.Writer
	mu      sync.Mutex
	partial bytes.Buffer
	now     func() time.Time
}

// NewTimestampedWriter creates a TimestampedWriter wrapping w.
func NewTimestampedWriter(w io.Writer) *TimestampedWriter {
	return &TimestampedWriter{w: w, now: time.Now}
}

// Write implements io.Writer.
func (tw *TimestampedWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	written := 0
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			tw.partial.Write(p)
			written += len(p)
			break
		}
		if err := tw.emitLine(p[:idx]); err != nil {
			return written, err
		}
		written += idx + 1
		p = p[idx+1:]
	}
	return written, nil
}

// emitLine writes one complete line, prepending any buffered partial content.
func (tw *TimestampedWriter) emitLine(tail []byte) error {
	stamp := tw.now().Format("[15:04:05] ")
	var line []byte
	if tw.partial.Len() > 0 {
		line = append(tw.partial.Bytes(), tail...)
		tw.partial.Reset()
	} else {
		line = tail
	}
	if _, err := fmt.Fprintf(tw.w, "%s%s\n", stamp, line); err != nil {
		return fmt.Errorf("writing timestamped line: %w", err)
	}
	return nil
}

// Flush writes any buffered partial line with a timestamp. Call once after
// the producing subprocess has exited so trailing output is not lost.
func (tw *TimestampedWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.partial.Len() == 0 {
		return nil
	}
	stamp := tw.now().Format("[15:04:05] ")
	if _, err := fmt.Fprintf(tw.w, "%s%s\n", stamp, tw.partial.Bytes()); err != nil {
		return fmt.Errorf("flushing partial line: %w", err)
	}
	tw.partial.Reset()
	return nil
}
