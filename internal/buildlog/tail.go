package buildlog

import (
	"bufio"
	"os"
	"strings"
)

// maxScanLine bounds single-line length when scanning logs. Compiler output
// can produce very long lines (full command invocations).
const maxScanLine = 1024 * 1024

// Tail returns up to n trailing lines of the file at path.
// A missing or empty file yields a nil slice, not an error: callers use this
// for best-effort diagnostics and must never fail because a log is absent.
func Tail(path string, n int) []string {
	if n <= 0 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxScanLine)
	for scanner.Scan() {
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, scanner.Text())
	}
	return ring
}

// lastLineWindow is how many trailing bytes LastLine inspects. Reading a
// bounded window keeps the sub-second repaint cheap against multi-hundred-MB
// compile logs.
const lastLineWindow = 8 * 1024

// LastLine returns the most recent non-empty line of the file at path, or ""
// if the file does not exist or has no content yet. It never blocks on the
// writer: the tail of the file is read as-is, tolerating a partial trailing
// line still being written.
func LastLine(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return ""
	}

	offset := info.Size() - lastLineWindow
	if offset < 0 {
		offset = 0
	}
	buf := make([]byte, info.Size()-offset)
	n, _ := f.ReadAt(buf, offset)
	if n == 0 {
		return ""
	}
	buf = buf[:n]

	lines := strings.Split(string(buf), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
