package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

// FileName is the log file created inside the data directory.
const FileName = "ffmpeg-architect.log"

// New returns a logger writing to w at level; unknown levels mean info.
func New(name, level string, w io.Writer) hclog.Logger {
	parsed := hclog.LevelFromString(level)
	if parsed == hclog.NoLevel {
		parsed = hclog.Info
	}
	if w == nil {
		w = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  parsed,
		Output: w,
	})
}

// OpenFile returns a logger writing to stderr and <dataDir>/FileName. The
// returned closer releases the file.
func OpenFile(name, level, dataDir string) (hclog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dataDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(name, level, io.MultiWriter(os.Stderr, file)), file, nil
}
