package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"ffmpeg-architect/internal/config"
	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/ffmpeg"
	"ffmpeg-architect/internal/logging"
	"ffmpeg-architect/internal/store"
)

type rootFlags struct {
	settings string
	config   string
	verbose  bool
	json     bool
}

// documentFlags override fields of the loaded configuration document.
type documentFlags struct {
	inputs []string
	output string
}

type commandContext struct {
	flags  *rootFlags
	runner ffmpeg.Runner

	settingsOnce sync.Once
	settings     domain.Settings
	settingsErr  error
}

func newCommandContext(flags *rootFlags, runner ffmpeg.Runner) *commandContext {
	return &commandContext{flags: flags, runner: runner}
}

func (c *commandContext) ensureSettings() (domain.Settings, error) {
	c.settingsOnce.Do(func() {
		path := strings.TrimSpace(c.flags.settings)
		if path == "" {
			path = config.DefaultPath()
		}
		c.settings, c.settingsErr = config.NewTOMLStore(path).Load()
	})
	return c.settings, c.settingsErr
}

func (c *commandContext) logger(cmd *cobra.Command) hclog.Logger {
	level := "warn"
	if c.flags.verbose {
		level = "debug"
	}
	return logging.New("ffarchitect", level, cmd.ErrOrStderr())
}

// withStore opens the record store in the settings data directory for the
// duration of fn.
func (c *commandContext) withStore(ctx context.Context, fn func(*store.Store) error) error {
	settings, err := c.ensureSettings()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, settings.DataDir)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer st.Close()

	if err := st.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return fn(st)
}

// client builds an ffmpeg client using the tool paths stored in st.
func (c *commandContext) client(ctx context.Context, cmd *cobra.Command, st *store.Store) (*ffmpeg.Client, error) {
	settings, err := st.SettingsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	client := ffmpeg.NewClient(c.runner, c.logger(cmd).Named("ffmpeg"))
	client.SetPaths(settings[domain.SettingFFmpegPath], settings[domain.SettingFFprobePath])
	return client, nil
}

// loadConfiguration reads the --config document, or the defaults, and applies
// document flag overrides.
func (c *commandContext) loadConfiguration(overrides documentFlags) (domain.Configuration, error) {
	cfg := domain.DefaultConfiguration()
	if path := strings.TrimSpace(c.flags.config); path != "" {
		loaded, err := readDocument(path)
		if err != nil {
			return domain.Configuration{}, err
		}
		cfg = loaded
	}
	if len(overrides.inputs) > 0 {
		cfg.InputFiles = append([]string(nil), overrides.inputs...)
	}
	if out := strings.TrimSpace(overrides.output); out != "" {
		cfg.OutputFile = out
	}
	return cfg.Normalize(), nil
}

func addDocumentFlags(cmd *cobra.Command, flags *documentFlags) {
	cmd.Flags().StringArrayVarP(&flags.inputs, "input", "i", nil, "Input file (repeatable; replaces the document inputs)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file")
}

// readDocument decodes a configuration document; .yaml and .yml files are
// YAML, everything else JSON.
func readDocument(path string) (domain.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("read configuration: %w", err)
	}
	if isYAMLPath(path) {
		return domain.ParseYAMLDocument(data)
	}
	return domain.ParseDocument(data)
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
