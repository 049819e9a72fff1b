package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"ffmpeg-architect/internal/domain"
)

const (
	appDirName     = ".ffmpeg-architect"
	configFileName = "config.toml"

	// GeminiKeyEnv fills an empty gemini_api_key.
	GeminiKeyEnv = "GEMINI_API_KEY"

	DefaultLogLevel              = "info"
	DefaultGeminiModel           = "gemini-1.5-flash"
	DefaultGeminiBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	DefaultRequestTimeoutSeconds = 60
)

// DefaultDir returns the per-user application directory.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, appDirName)
}

// DefaultPath returns the settings file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), configFileName)
}

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		DataDir:               DefaultDir(),
		LogLevel:              DefaultLogLevel,
		Language:              domain.DefaultLanguage,
		GeminiModel:           DefaultGeminiModel,
		GeminiBaseURL:         DefaultGeminiBaseURL,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
	}
}

// Normalize fills blank fields with defaults and rejects unknown log levels.
func Normalize(cfg domain.Settings) domain.Settings {
	defaults := DefaultSettings()
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if strings.HasPrefix(cfg.DataDir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, cfg.DataDir[2:])
		}
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if hclog.LevelFromString(cfg.LogLevel) == hclog.NoLevel {
		cfg.LogLevel = defaults.LogLevel
	}
	cfg.Language = strings.TrimSpace(cfg.Language)
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.GeminiModel = strings.TrimSpace(cfg.GeminiModel)
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = defaults.GeminiModel
	}
	cfg.GeminiBaseURL = strings.TrimSpace(cfg.GeminiBaseURL)
	if cfg.GeminiBaseURL == "" {
		cfg.GeminiBaseURL = defaults.GeminiBaseURL
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
	return cfg
}
