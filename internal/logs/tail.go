// Package logs reads the daemon's log file for the CLI's logs command. The
// daemon serves tail requests over IPC so the CLI never needs filesystem
// access to the log directory.
package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Options controls a single tail read.
//
// A negative Offset asks for the last Limit lines of the file; a
// non-negative Offset reads forward from that byte position. Wait bounds how
// long a follow request blocks for new lines before returning empty.
type Options struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// Result carries the lines read plus the offset to resume from.
type Result struct {
	Lines  []string
	Offset int64
}

// Tail reads log lines per opts. A missing file is not an error; it returns
// an empty result with offset zero so followers pick the file up once the
// daemon creates it.
func Tail(ctx context.Context, path string, opts Options) (Result, error) {
	res := Result{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			res.Offset = 0
			return res, nil
		}
		return res, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return res, fmt.Errorf("log path %q is a directory", path)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		res.Lines, res.Offset, err = lastLines(path, opts.Limit)
		if err != nil {
			return res, err
		}
	} else {
		start := opts.Offset
		if start > info.Size() {
			start = info.Size()
		}
		res.Lines, res.Offset, err = readFrom(path, start)
		if err != nil {
			return res, err
		}
	}

	if opts.Follow && opts.Wait > 0 && len(res.Lines) == 0 {
		return pollForLines(ctx, path, res.Offset, opts.Wait)
	}
	return res, nil
}

// lastLines returns up to limit trailing lines and the end-of-file offset.
func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	scanner := newLineScanner(file)
	ring := make([]string, limit)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := range lines {
			lines[i] = ring[(next+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, end, nil
}

func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	scanner := newLineScanner(file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, end, nil
}

// pollForLines re-reads from offset until new lines arrive, the wait window
// lapses, or ctx is cancelled.
func pollForLines(ctx context.Context, path string, offset int64, wait time.Duration) (Result, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	res := Result{Offset: offset}
	for {
		lines, end, err := readFrom(path, res.Offset)
		if err != nil {
			return res, err
		}
		if len(lines) > 0 {
			res.Lines = lines
			res.Offset = end
			return res, nil
		}
		res.Offset = end

		if time.Now().After(deadline) {
			return res, nil
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
