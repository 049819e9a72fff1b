package ffmpeg

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"ffmpeg-architect/internal/domain"
)

const (
	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"

	VersionUnknown  = "Unknown Version"
	VersionNotFound = "FFmpeg not found"
)

// HardwareEncoders are the encoder families reported by Encoders.
var HardwareEncoders = []string{"nvenc", "qsv", "amf", "vaapi", "videotoolbox"}

var versionRe = regexp.MustCompile(`ffmpeg version ([^\s,]+)`)

// Client runs ffmpeg and ffprobe through a Runner using configurable paths.
type Client struct {
	runner Runner
	logger hclog.Logger

	mu          sync.RWMutex
	ffmpegPath  string
	ffprobePath string
}

// NewClient creates a client using the default executable names.
func NewClient(runner Runner, logger hclog.Logger) *Client {
	if runner == nil {
		runner = NewExecRunner()
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		runner:      runner,
		logger:      logger,
		ffmpegPath:  DefaultFFmpegPath,
		ffprobePath: DefaultFFprobePath,
	}
}

// SetPaths replaces the executable paths; blank values restore defaults.
func (c *Client) SetPaths(ffmpegPath, ffprobePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ffmpegPath = orDefault(ffmpegPath, DefaultFFmpegPath)
	c.ffprobePath = orDefault(ffprobePath, DefaultFFprobePath)
}

// FFmpegPath returns the configured ffmpeg executable.
func (c *Client) FFmpegPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ffmpegPath
}

// FFprobePath returns the configured ffprobe executable.
func (c *Client) FFprobePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ffprobePath
}

// Execute runs ffmpeg with args, streaming stderr to onStderr.
func (c *Client) Execute(ctx context.Context, args []string, onStderr ChunkFunc) (Result, error) {
	path := c.FFmpegPath()
	c.logger.Debug("starting ffmpeg", "path", path, "args", args)
	result, err := c.runner.Run(ctx, path, args, onStderr)
	if err != nil {
		c.logger.Warn("ffmpeg did not complete", "path", path, "error", err)
		return result, err
	}
	if result.StderrTruncated {
		c.logger.Warn("ffmpeg stderr truncated", "path", path)
	}
	c.logger.Debug("ffmpeg finished", "exit_code", result.ExitCode)
	return result, nil
}

// Version returns the ffmpeg release string reported by -version.
func (c *Client) Version(ctx context.Context) string {
	result, err := c.runner.Run(ctx, c.FFmpegPath(), []string{"-version"}, nil)
	if err != nil {
		c.logger.Debug("ffmpeg version check failed", "error", err)
		return VersionNotFound
	}
	if m := versionRe.FindStringSubmatch(result.Stdout); m != nil {
		return m[1]
	}
	return VersionUnknown
}

// Encoders reports which hardware encoder families ffmpeg was built with.
// Results are advisory only.
func (c *Client) Encoders(ctx context.Context) domain.Capabilities {
	caps := make(domain.Capabilities, len(HardwareEncoders))
	result, err := c.runner.Run(ctx, c.FFmpegPath(), []string{"-hide_banner", "-encoders"}, nil)
	if err != nil {
		c.logger.Debug("ffmpeg encoder listing failed", "error", err)
	}
	for _, name := range HardwareEncoders {
		caps[name] = err == nil && strings.Contains(result.Stdout, name)
	}
	return caps
}

// Probe returns ffprobe metadata for path, or nil when ffprobe fails or
// its output cannot be decoded.
func (c *Client) Probe(ctx context.Context, path string) *domain.ProbeResult {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	result, err := c.runner.Run(ctx, c.FFprobePath(), args, nil)
	if err != nil || result.ExitCode != 0 {
		c.logger.Debug("ffprobe failed", "path", path, "exit_code", result.ExitCode, "error", err)
		return nil
	}

	var probe domain.ProbeResult
	if err := json.Unmarshal([]byte(result.Stdout), &probe); err != nil {
		c.logger.Debug("ffprobe output not decodable", "path", path, "error", err)
		return nil
	}
	return &probe
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
