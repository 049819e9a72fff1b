package diagnostics

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"ffmpeg-architect/internal/domain"
)

// Input describes what the checks inspect.
type Input struct {
	DataDir       string
	FFmpegPath    string
	FFprobePath   string
	OllamaServers []string
	HasGeminiKey  bool
}

// OllamaLister lists models on an Ollama server; any error means unreachable.
type OllamaLister interface {
	ListModels(ctx context.Context, server string) ([]domain.OllamaModel, error)
}

// Checker validates external tools, the data directory, and AI backends.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	ollama     OllamaLister
	timeout    time.Duration
}

// NewChecker builds a checker using real OS dependencies. ollama may be nil.
func NewChecker(ollama OllamaLister) *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		ollama:     ollama,
		timeout:    3 * time.Second,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(ctx context.Context, in Input) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("ffmpeg", in.FFmpegPath, domain.DiagnosticStatusFail,
			"Install ffmpeg or set ffmpegPath in settings before executing commands."),
		c.checkTool("ffprobe", in.FFprobePath, domain.DiagnosticStatusWarn,
			"Install ffprobe or set ffprobePath to enable media metadata and progress percent."),
		c.checkDataDir(in.DataDir),
		c.checkGemini(in.HasGeminiKey),
	}
	for _, server := range in.OllamaServers {
		items = append(items, c.checkOllama(ctx, server))
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a CLI executable resolves; missing reports as missing.
func (c *Checker) checkTool(name, configured string, missing domain.DiagnosticStatus, hint string) domain.DiagnosticItem {
	target := strings.TrimSpace(configured)
	if target == "" {
		target = name
	}
	item := domain.DiagnosticItem{ID: "tool_" + name, Name: name}

	path, err := c.lookPath(target)
	if err != nil {
		item.Status = missing
		item.Message = fmt.Sprintf("Tool not found: %s", target)
		item.Hint = hint
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkDataDir validates data directory existence and write access.
func (c *Checker) checkDataDir(dataDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "data_dir",
		Name: "Data directory",
	}

	if strings.TrimSpace(dataDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Data directory is empty."
		item.Hint = "Set data_dir in config.toml to a writable location."
		return item
	}

	if err := c.mkdirAll(dataDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create data directory: %s", dataDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dataDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Data directory is not writable: %s", dataDir)
		item.Hint = "Run history, presets and settings are stored here."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dataDir)
	return item
}

func (c *Checker) checkGemini(hasKey bool) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "ai_gemini", Name: "Gemini"}
	if !hasKey {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "No Gemini API key configured."
		item.Hint = "Set gemini_api_key in config.toml or the GEMINI_API_KEY environment variable."
		return item
	}
	item.Status = domain.DiagnosticStatusPass
	item.Message = "API key configured."
	return item
}

func (c *Checker) checkOllama(ctx context.Context, server string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{ID: "ai_ollama_" + server, Name: "Ollama " + server}
	if c.ollama == nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "Ollama client unavailable."
		return item
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	models, err := c.ollama.ListModels(ctx, server)
	if err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("Ollama server unreachable: %s", server)
		item.Hint = "Start Ollama or update ollamaServers in settings."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Reachable, %d model(s) installed", len(models))
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	ollama OllamaLister,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		ollama:     ollama,
		timeout:    time.Second,
	}
}
