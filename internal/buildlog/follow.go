package buildlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Follower streams lines from a stage log as they are written, using
// fsnotify for change detection with a polling fallback for missed events.
type Follower struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewFollower creates a Follower for the given log path. The file does not
// need to exist yet; the follower waits for its creation.
func NewFollower(path string) (*Follower, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Follower{path: path, watcher: watcher}, nil
}

// Lines streams log lines on the returned channel. Existing content is sent
// first; if follow is true the channel then stays open, delivering new lines
// until the context is cancelled. The channel is closed on return.
func (f *Follower) Lines(ctx context.Context, follow bool) <-chan string {
	out := make(chan string, 100)
	go f.run(ctx, out, follow)
	return out
}

func (f *Follower) run(ctx context.Context, out chan<- string, follow bool) {
	defer close(out)

	if err := f.waitForFile(ctx); err != nil {
		return
	}

	offset := f.sendFrom(ctx, out, 0)
	if !follow {
		return
	}

	if err := f.watcher.Add(f.path); err != nil {
		return
	}

	// Poll as a backup for missed events.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Name == f.path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				offset = f.sendFrom(ctx, out, offset)
			}
		case <-ticker.C:
			offset = f.sendFrom(ctx, out, offset)
		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			// Keep going; the polling path still reads new content.
		}
	}
}

// waitForFile blocks until the log file exists or the context is cancelled.
func (f *Follower) waitForFile(ctx context.Context) error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	}

	parent := filepath.Dir(f.path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	if err := f.watcher.Add(parent); err != nil {
		return fmt.Errorf("watching log directory: %w", err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-f.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if event.Name == f.path && (event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				return nil
			}
		case <-ticker.C:
			if _, err := os.Stat(f.path); err == nil {
				return nil
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// sendFrom reads complete lines starting at offset and sends them to out.
// Returns the new offset. Handles truncation by restarting from zero.
func (f *Follower) sendFrom(ctx context.Context, out chan<- string, offset int64) int64 {
	file, err := os.Open(f.path)
	if err != nil {
		return offset
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxScanLine)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return offset
		case out <- scanner.Text():
			offset += int64(len(scanner.Bytes())) + 1
		}
	}
	return offset
}

// Close releases the follower's watcher.
func (f *Follower) Close() error {
	return f.watcher.Close()
}
