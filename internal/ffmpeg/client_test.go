package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner simulates command execution outcomes.
type fakeRunner struct {
	run func(ctx context.Context, name string, args []string, onStderr ChunkFunc) (Result, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args []string, onStderr ChunkFunc) (Result, error) {
	if f.run == nil {
		return Result{}, nil
	}
	return f.run(ctx, name, args, onStderr)
}

func stdoutRunner(stdout string, exitCode int, err error) *fakeRunner {
	return &fakeRunner{run: func(ctx context.Context, name string, args []string, onStderr ChunkFunc) (Result, error) {
		return Result{Command: name, Args: args, Stdout: stdout, ExitCode: exitCode}, err
	}}
}

// TestVersion covers the three version outcomes.
func TestVersion(t *testing.T) {
	ctx := context.Background()

	c := NewClient(stdoutRunner("ffmpeg version 6.1.1-3ubuntu5, Copyright (c) 2000-2023", 0, nil), nil)
	assert.Equal(t, "6.1.1-3ubuntu5", c.Version(ctx))

	c = NewClient(stdoutRunner("something else", 0, nil), nil)
	assert.Equal(t, VersionUnknown, c.Version(ctx))

	c = NewClient(stdoutRunner("", -1, errors.New("exec: not found")), nil)
	assert.Equal(t, VersionNotFound, c.Version(ctx))
}

// TestEncoders checks substring detection of hardware encoders.
func TestEncoders(t *testing.T) {
	out := " V....D h264_nvenc  NVIDIA NVENC H.264 encoder\n V....D hevc_vaapi  H.265/HEVC (VAAPI)\n"
	caps := NewClient(stdoutRunner(out, 0, nil), nil).Encoders(context.Background())

	assert.True(t, caps["nvenc"])
	assert.True(t, caps["vaapi"])
	assert.False(t, caps["qsv"])
	assert.False(t, caps["amf"])
	assert.False(t, caps["videotoolbox"])
	assert.Len(t, caps, len(HardwareEncoders))
}

// TestProbe decodes ffprobe JSON and rejects failures.
func TestProbe(t *testing.T) {
	var gotName string
	var gotArgs []string
	runner := &fakeRunner{run: func(ctx context.Context, name string, args []string, onStderr ChunkFunc) (Result, error) {
		gotName, gotArgs = name, args
		return Result{Stdout: `{"format":{"format_name":"mov,mp4","duration":"10.000000","extra":1},"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":1920,"height":1080}]}`}, nil
	}}
	c := NewClient(runner, nil)
	c.SetPaths("/opt/ffmpeg", "/opt/ffprobe")

	probe := c.Probe(context.Background(), "clip.mp4")
	require.NotNil(t, probe)
	assert.Equal(t, "/opt/ffprobe", gotName)
	assert.Equal(t, "clip.mp4", gotArgs[len(gotArgs)-1])
	assert.InDelta(t, 10.0, probe.DurationSeconds(), 0.001)
	video, ok := probe.FirstStream("video")
	require.True(t, ok)
	assert.Equal(t, 1920, video.Width)

	assert.Nil(t, NewClient(stdoutRunner("{}", 1, nil), nil).Probe(context.Background(), "x.mp4"))
	assert.Nil(t, NewClient(stdoutRunner("not json", 0, nil), nil).Probe(context.Background(), "x.mp4"))
	assert.Nil(t, c.Probe(context.Background(), "  "))
}

// TestSetPathsDefaults checks blank paths fall back to defaults.
func TestSetPathsDefaults(t *testing.T) {
	c := NewClient(nil, nil)
	c.SetPaths(" ", "")
	assert.Equal(t, DefaultFFmpegPath, c.FFmpegPath())
	assert.Equal(t, DefaultFFprobePath, c.FFprobePath())
}

// TestScanProgressLines checks \r and \n both terminate lines.
func TestScanProgressLines(t *testing.T) {
	var lines []string
	err := drainLines(strings.NewReader("header\nframe=1 time=00:00:01.00\rframe=2 time=00:00:02.00\r\ndone"), func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"header", "frame=1 time=00:00:01.00", "frame=2 time=00:00:02.00", "done"}, lines)
}

// TestDrainLinesReportsOverlongLine checks an oversized line surfaces an
// error and the remaining input is still consumed.
func TestDrainLinesReportsOverlongLine(t *testing.T) {
	input := "first\n" + strings.Repeat("a", 1100*1024) + "\ntail\n"
	r := strings.NewReader(input)
	var lines []string
	err := drainLines(r, func(line string) { lines = append(lines, line) })
	require.Error(t, err)
	assert.Equal(t, []string{"first"}, lines)
	assert.Zero(t, r.Len())
}

// TestExecuteLogsTruncatedStderr checks truncation is reported through the logger.
func TestExecuteLogsTruncatedStderr(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})
	runner := &fakeRunner{run: func(ctx context.Context, name string, args []string, onStderr ChunkFunc) (Result, error) {
		return Result{Command: name, Args: args, Stderr: "[stderr truncated: token too long]\n", StderrTruncated: true}, nil
	}}

	result, err := NewClient(runner, logger).Execute(context.Background(), []string{"-i", "a.mp4", "out.mp4"}, nil)
	require.NoError(t, err)
	assert.True(t, result.StderrTruncated)
	assert.Contains(t, buf.String(), "ffmpeg stderr truncated")
}
