package store

import (
	"context"
	"fmt"
	"strings"

	"ffmpeg-architect/internal/domain"
)

// DefaultSettings are seeded on startup without replacing user values.
var DefaultSettings = []domain.SettingRow{
	{Key: domain.SettingFFmpegPath, Value: "ffmpeg"},
	{Key: domain.SettingFFprobePath, Value: "ffprobe"},
	{Key: domain.SettingOllamaServers, Value: domain.DefaultOllamaServer},
}

// SeedDefaults inserts DefaultSettings rows that are missing.
func (s *Store) SeedDefaults(ctx context.Context) error {
	for _, row := range DefaultSettings {
		if _, err := s.execWithRetry(ctx,
			`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, row.Key, row.Value); err != nil {
			return fmt.Errorf("seed setting %s: %w", row.Key, err)
		}
	}
	return nil
}

// GetSettings returns every setting row ordered by key.
func (s *Store) GetSettings(ctx context.Context) ([]domain.SettingRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	settings := []domain.SettingRow{}
	for rows.Next() {
		var row domain.SettingRow
		if err := rows.Scan(&row.Key, &row.Value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings = append(settings, row)
	}
	return settings, rows.Err()
}

// SettingsMap returns settings keyed by name.
func (s *Store) SettingsMap(ctx context.Context) (map[string]string, error) {
	rows, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// SetSetting inserts or replaces one setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("setting key is required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
