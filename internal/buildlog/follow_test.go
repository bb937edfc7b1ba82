package buildlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectLines(ch <-chan string) []string {
	var lines []string
	for line := range ch {
		lines = append(lines, line)
	}
	return lines
}

func TestFollowerReadsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.log")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\n"), 0o644))

	f, err := NewFollower(path)
	require.NoError(t, err)
	defer f.Close()

	lines := collectLines(f.Lines(context.Background(), false))
	assert.Equal(t, []string{"alpha", "beta"}, lines)
}

func TestFollowerStreamsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	f, err := NewFollower(path)
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := f.Lines(ctx, true)

	require.Equal(t, "existing", <-ch)

	appender, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = appender.WriteString("appended\n")
	require.NoError(t, err)
	require.NoError(t, appender.Close())

	select {
	case line := <-ch:
		assert.Equal(t, "appended", line)
	case <-ctx.Done():
		t.Fatal("timed out waiting for appended line")
	}

	// Cancellation closes the channel.
	cancel()
	for range ch {
	}
}

func TestFollowerWaitsForFileCreation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.log")

	f, err := NewFollower(path)
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := f.Lines(ctx, false)

	// Create the file after the follower started waiting.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("born late\n"), 0o644))

	select {
	case line, ok := <-ch:
		require.True(t, ok)
		assert.Equal(t, "born late", line)
	case <-ctx.Done():
		t.Fatal("timed out waiting for file creation")
	}
}

func TestFollowerCancelledBeforeFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.log")

	f, err := NewFollower(path)
	require.NoError(t, err)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := f.Lines(ctx, true)
	cancel()

	// The channel must close rather than block forever.
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("follower did not shut down on cancellation")
	}
}
