package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"ffmpeg-architect/internal/domain"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// TOMLStore persists settings in a single TOML file on disk.
type TOMLStore struct {
	path      string
	lookupEnv func(string) (string, bool)
}

// NewTOMLStore creates a TOML-backed settings store.
func NewTOMLStore(path string) *TOMLStore {
	return &TOMLStore{path: path, lookupEnv: os.LookupEnv}
}

// Path returns the settings file location.
func (s *TOMLStore) Path() string {
	return s.path
}

// Load reads settings from disk or returns defaults when missing. Fields
// absent from the file keep their defaults.
func (s *TOMLStore) Load() (domain.Settings, error) {
	cfg := DefaultSettings()
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return domain.Settings{}, fmt.Errorf("parse settings %s: %w", s.path, err)
		}
	}

	cfg = Normalize(cfg)
	if cfg.GeminiAPIKey == "" {
		if key, ok := s.lookupEnv(GeminiKeyEnv); ok {
			cfg.GeminiAPIKey = strings.TrimSpace(key)
		}
	}
	return cfg, nil
}

// Save writes settings as TOML and creates parent directories.
func (s *TOMLStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(Normalize(cfg))
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	return os.WriteFile(s.path, data, 0o600)
}
