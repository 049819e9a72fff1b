package ffmpeg

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

// TestExecRunnerStreamsStderrAndExitCode checks non-zero exits are results.
func TestExecRunnerStreamsStderrAndExitCode(t *testing.T) {
	sh := requireShell(t)

	var chunks []string
	result, err := NewExecRunner().Run(context.Background(), sh,
		[]string{"-c", `printf 'one\rtwo\n' >&2; echo out; exit 3`},
		func(chunk string) { chunks = append(chunks, chunk) })

	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, []string{"one", "two"}, chunks)
	assert.Equal(t, "one\ntwo\n", result.Stderr)
	assert.Equal(t, "out\n", result.Stdout)
}

// TestExecRunnerMissingExecutable checks spawn failures are errors.
func TestExecRunnerMissingExecutable(t *testing.T) {
	result, err := NewExecRunner().Run(context.Background(), "/nonexistent/ffmpeg-binary", nil, nil)
	require.Error(t, err)
	assert.Equal(t, -1, result.ExitCode)
}

// TestExecRunnerCancelled checks context cancellation surfaces ctx.Err.
func TestExecRunnerCancelled(t *testing.T) {
	sh := requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := NewExecRunner().Run(ctx, sh, []string{"-c", "sleep 5"}, nil)
	require.Error(t, err)
	assert.Equal(t, -1, result.ExitCode)
}

// TestExecRunnerFlagsTruncatedStderr checks an overlong stderr line is
// flagged instead of silently dropping the rest of the stream.
func TestExecRunnerFlagsTruncatedStderr(t *testing.T) {
	sh := requireShell(t)

	result, err := NewExecRunner().Run(context.Background(), sh,
		[]string{"-c", `head -c 1100000 /dev/zero | tr '\0' a >&2; echo tail >&2`}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.StderrTruncated)
	assert.Contains(t, result.Stderr, "[stderr truncated:")
}
