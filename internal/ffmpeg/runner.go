package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Result captures one finished process invocation.
type Result struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	// StderrTruncated is set when a stderr line exceeded the scan buffer and
	// the rest of the stream was discarded.
	StderrTruncated bool `json:"stderrTruncated,omitempty"`
}

// ChunkFunc receives stderr text as the process produces it.
type ChunkFunc func(chunk string)

// Runner abstracts process execution for testability.
//
// Run returns a nil error when the process ran to completion, whatever its
// exit code. A non-nil error means it could not start or was interrupted by
// ctx; ExitCode is -1 in that case.
type Runner interface {
	Run(ctx context.Context, name string, args []string, onStderr ChunkFunc) (Result, error)
}

// ExecRunner executes commands via os/exec and streams stderr line by line.
type ExecRunner struct{}

// NewExecRunner returns the production runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts name with args, forwards every stderr line to onStderr, and
// waits for the stream to drain before returning.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, onStderr ChunkFunc) (Result, error) {
	result := Result{
		Command:  name,
		Args:     append([]string(nil), args...),
		ExitCode: -1,
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return result, fmt.Errorf("open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return result, fmt.Errorf("start %s: %w", name, err)
	}

	// The pipe must be fully read before Wait closes it.
	var stderr strings.Builder
	scanErr := drainLines(stderrPipe, func(line string) {
		stderr.WriteString(line)
		stderr.WriteByte('\n')
		if onStderr != nil {
			onStderr(line)
		}
	})
	if scanErr != nil {
		result.StderrTruncated = true
		fmt.Fprintf(&stderr, "[stderr truncated: %v]\n", scanErr)
	}

	waitErr := cmd.Wait()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("wait %s: %w", name, waitErr)
	}

	result.ExitCode = 0
	return result, nil
}

// drainLines reads r to EOF, splitting on \n and on the bare \r ffmpeg
// uses to redraw its stats line. It returns the scanner error, if any,
// after discarding the unread tail.
func drainLines(r io.Reader, emit func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		emit(line)
	}
	// A scanner error leaves the tail unread; copy it out so the child does
	// not block on a full pipe.
	_, _ = io.Copy(io.Discard, r)
	return scanner.Err()
}

// scanProgressLines is bufio.ScanLines with '\r' accepted as a terminator.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
