package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffmpeg-architect/internal/config"
	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/ffmpeg"
)

// fakeRunner fails ffprobe and delegates ffmpeg calls.
type fakeRunner struct {
	calls [][]string
	run   func(args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error)
}

// Run records the call and delegates to injected behavior.
func (r *fakeRunner) Run(ctx context.Context, name string, args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if name == ffmpeg.DefaultFFprobePath {
		return ffmpeg.Result{ExitCode: 1}, nil
	}
	if r.run == nil {
		return ffmpeg.Result{}, nil
	}
	return r.run(args, onStderr)
}

type cliEnv struct {
	settingsPath string
	dir          string
	runner       *fakeRunner
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	settings := config.DefaultSettings()
	settings.DataDir = filepath.Join(dir, "data")
	settingsPath := filepath.Join(dir, "config.toml")
	require.NoError(t, config.NewTOMLStore(settingsPath).Save(settings))
	return &cliEnv{settingsPath: settingsPath, dir: dir, runner: &fakeRunner{}}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithRunner(e.runner)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--settings", e.settingsPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestPreviewReadsYAMLDocument checks YAML loading and flag overrides.
func TestPreviewReadsYAMLDocument(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.writeFile(t, "web.yaml", "videoCodec: libx264\naudioCodec: aac\noutputFile: web.mp4\n")

	stdout, _, err := env.run(t, "preview", "--config", doc, "-i", "clip one.mov", "-o", "out.mp4")
	require.NoError(t, err)
	assert.Contains(t, stdout, `ffmpeg -i "clip one.mov" -c:v libx264 -c:a aac out.mp4`)
}

// TestPreviewJSON checks the machine-readable preview.
func TestPreviewJSON(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "--json", "preview")
	require.NoError(t, err)

	var out previewOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, []string{"-i", "input.mp4", "output.mp4"}, out.Args)
	assert.NotEmpty(t, out.Warnings)
}

// TestValidateFailsOnWarnings checks a non-zero exit when warnings exist.
func TestValidateFailsOnWarnings(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.writeFile(t, "copy.json", `{"inputFiles":["a.mp4"],"videoCodec":"copy","videoFilters":"scale=1280:-2"}`)

	stdout, _, err := env.run(t, "validate", "--config", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 warning")
	assert.Contains(t, stdout, "copy")

	stdout, _, err = env.run(t, "validate", "-i", "a.mp4")
	require.NoError(t, err)
	assert.Contains(t, stdout, "configuration ok")
}

// TestRunRecordsHistory checks a successful run lands in history.
func TestRunRecordsHistory(t *testing.T) {
	env := newCLIEnv(t)

	stdout, stderr, err := env.run(t, "run", "-i", "a.mp4", "-o", "b.mkv")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "1 command(s) completed")
	assert.Contains(t, stderr, "[1/1] ffmpeg -i a.mp4 b.mkv")

	stdout, _, err = env.run(t, "--json", "history")
	require.NoError(t, err)
	var records []domain.RunRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "ffmpeg -i a.mp4 b.mkv", records[0].Command)
	assert.Equal(t, domain.RecordStatusSuccess, records[0].Status)
}

// TestRunBatchContinueOnError checks the flag keeps a batch going.
func TestRunBatchContinueOnError(t *testing.T) {
	env := newCLIEnv(t)
	env.runner.run = func(args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
		if args[1] == "a.mp4" {
			return ffmpeg.Result{ExitCode: 1, Stderr: "Unknown encoder 'x'\n"}, nil
		}
		return ffmpeg.Result{}, nil
	}

	_, stderr, err := env.run(t, "run", "-i", "a.mp4", "-i", "b.mp4", "--continue-on-error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Batch failed at file 1")
	assert.Contains(t, stderr, "Unsupported encoder")

	ffmpegCalls := 0
	for _, call := range env.runner.calls {
		if call[0] == ffmpeg.DefaultFFmpegPath {
			ffmpegCalls++
		}
	}
	assert.Equal(t, 2, ffmpegCalls)
}

// TestPresetSaveExportImport checks the preset round trip through documents.
func TestPresetSaveExportImport(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "preset", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No presets saved")

	_, _, err = env.run(t, "preset", "save", "Archive", "-i", "a.mp4", "-o", "archive.mkv")
	require.NoError(t, err)

	yamlDoc, _, err := env.run(t, "preset", "export", "1")
	require.NoError(t, err)
	assert.Contains(t, yamlDoc, "outputFile: archive.mkv")

	path := env.writeFile(t, "archive-copy.yaml", yamlDoc)
	stdout, _, err = env.run(t, "preset", "import", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "archive-copy")

	stdout, _, err = env.run(t, "--json", "preset", "list")
	require.NoError(t, err)
	var presets []domain.Preset
	require.NoError(t, json.Unmarshal([]byte(stdout), &presets))
	require.Len(t, presets, 2)

	jsonDoc, _, err := env.run(t, "preset", "export", "2", "--format", "json")
	require.NoError(t, err)
	cfg, err := domain.ParseDocument([]byte(jsonDoc))
	require.NoError(t, err)
	assert.Equal(t, "archive.mkv", cfg.OutputFile)
	assert.Equal(t, []string{"a.mp4"}, cfg.InputFiles)

	_, _, err = env.run(t, "preset", "export", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// TestEncodersAndVersion checks capability and version reporting.
func TestEncodersAndVersion(t *testing.T) {
	env := newCLIEnv(t)
	env.runner.run = func(args []string, onStderr ffmpeg.ChunkFunc) (ffmpeg.Result, error) {
		if strings.Contains(strings.Join(args, " "), "-encoders") {
			return ffmpeg.Result{Stdout: " V....D h264_videotoolbox VideoToolbox H.264 Encoder\n"}, nil
		}
		return ffmpeg.Result{Stdout: "ffmpeg version 7.0.1 Copyright (c) 2000-2024"}, nil
	}

	stdout, _, err := env.run(t, "--json", "encoders")
	require.NoError(t, err)
	var caps domain.Capabilities
	require.NoError(t, json.Unmarshal([]byte(stdout), &caps))
	assert.True(t, caps["videotoolbox"])
	assert.False(t, caps["nvenc"])

	stdout, _, err = env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "7.0.1")
}

// TestProbeWithoutMetadata checks ffprobe failures surface as errors.
func TestProbeWithoutMetadata(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "probe", "missing.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.mp4")
}
