package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"ffmpeg-architect/internal/domain"
)

// SavePreset stores the current configuration under name.
func (a *App) SavePreset(name string) (domain.Preset, error) {
	preset, err := a.Store.SavePreset(context.Background(), name, a.Session.State())
	if err != nil {
		return domain.Preset{}, fmt.Errorf("save preset: %w", err)
	}
	return preset, nil
}

// GetPresets lists saved presets.
func (a *App) GetPresets() ([]domain.Preset, error) {
	presets, err := a.Store.ListPresets(context.Background())
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return presets, nil
}

// LoadPreset replaces the configuration with a saved preset. It is undoable.
func (a *App) LoadPreset(id int64) (StateView, error) {
	preset, err := a.Store.GetPreset(context.Background(), id)
	if err != nil {
		return a.GetState(), err
	}
	before := a.Session.State()
	if _, err := a.Session.LoadPreset(preset); err != nil {
		return a.GetState(), err
	}
	return a.committed(before), nil
}

// GetSettings returns the runtime key-value settings.
func (a *App) GetSettings() ([]domain.SettingRow, error) {
	rows, err := a.Store.GetSettings(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return rows, nil
}

// UpdateSetting upserts one runtime setting. Tool path changes take effect
// immediately and invalidate cached probes.
func (a *App) UpdateSetting(key, value string) ([]domain.SettingRow, error) {
	ctx := context.Background()
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if err := a.Store.SetSetting(ctx, key, value); err != nil {
		return nil, err
	}

	switch key {
	case domain.SettingFFmpegPath, domain.SettingFFprobePath:
		settings, err := a.Store.SettingsMap(ctx)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		a.FFmpeg.SetPaths(settings[domain.SettingFFmpegPath], settings[domain.SettingFFprobePath])
		a.mu.Lock()
		a.encoders = nil
		a.version = ""
		a.mu.Unlock()
	}
	return a.GetSettings()
}

// GetEncoders reports hardware encoder availability, cached after the first probe.
func (a *App) GetEncoders() domain.Capabilities {
	a.mu.Lock()
	cached := a.encoders
	a.mu.Unlock()
	if cached != nil {
		return cached
	}

	caps := a.FFmpeg.Encoders(context.Background())
	a.mu.Lock()
	a.encoders = caps
	a.mu.Unlock()
	return caps
}

// GetFFmpegVersion returns the ffmpeg release string, cached after the first probe.
func (a *App) GetFFmpegVersion() string {
	a.mu.Lock()
	cached := a.version
	a.mu.Unlock()
	if cached != "" {
		return cached
	}

	version := a.FFmpeg.Version(context.Background())
	a.mu.Lock()
	a.version = version
	a.mu.Unlock()
	return version
}

// GetMetadata returns ffprobe metadata for path, or nil when unavailable.
func (a *App) GetMetadata(path string) *domain.ProbeResult {
	return a.FFmpeg.Probe(context.Background(), path)
}
