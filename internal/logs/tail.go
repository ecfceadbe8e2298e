package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hardsub/internal/logging"
)

// ErrNoLogs reports a log directory without any run logs.
var ErrNoLogs = errors.New("no run logs found")

// TailOptions configures Tail.
type TailOptions struct {
	// Lines is the number of trailing lines to return; zero or less means 50.
	Lines int
	// Follow keeps reading appended lines until ctx is done.
	Follow bool
	// Poll is the follow interval; zero means 250ms.
	Poll time.Duration
}

// Latest returns the newest run log under dir. File names embed a UTC
// timestamp, so lexical order is chronological.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logging.LogFilePattern))
	if err != nil {
		return "", fmt.Errorf("list logs: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// Tail writes the last lines of path to fn. With Follow set it then polls for
// appended complete lines and passes them to fn until ctx ends.
func Tail(ctx context.Context, path string, opts TailOptions, fn func(string)) error {
	limit := opts.Lines
	if limit <= 0 {
		limit = 50
	}
	lines, offset, err := lastLines(path, limit)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fn(line)
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		next, err := readFrom(path, offset, fn)
		if err != nil {
			return err
		}
		offset = next
	}
}

// lastLines keeps a ring of the final limit complete lines and reports the
// offset just past the last complete line.
func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, 0, limit)
	start := 0
	var offset int64
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("read log: %w", err)
		}
		if !strings.HasSuffix(line, "\n") {
			break
		}
		offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if len(ring) < limit {
			ring = append(ring, line)
		} else {
			ring[start] = line
			start = (start + 1) % limit
		}
	}
	out := make([]string, 0, len(ring))
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return out, offset, nil
}

// readFrom passes complete lines after offset to fn. A partially written line
// is left for the next poll. A file shorter than offset was replaced and is
// read from the start.
func readFrom(path string, offset int64, fn func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return offset, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log: %w", err)
	}
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if !strings.HasSuffix(line, "\n") {
			if err != nil && !errors.Is(err, io.EOF) {
				return offset, fmt.Errorf("read log: %w", err)
			}
			return offset, nil
		}
		offset += int64(len(line))
		fn(strings.TrimRight(line, "\r\n"))
	}
}
