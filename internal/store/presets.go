package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ffmpeg-architect/internal/domain"
)

// SavePreset stores a named configuration document.
func (s *Store) SavePreset(ctx context.Context, name string, cfg domain.Configuration) (domain.Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Preset{}, errors.New("preset name is required")
	}
	doc, err := cfg.MarshalDocument()
	if err != nil {
		return domain.Preset{}, err
	}

	createdAt := s.now().UTC()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO presets (name, config_json, created_at) VALUES (?, ?, ?)`,
		name, string(doc), formatTime(createdAt),
	)
	if err != nil {
		return domain.Preset{}, fmt.Errorf("insert preset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Preset{}, fmt.Errorf("last insert id: %w", err)
	}
	return domain.Preset{ID: id, Name: name, ConfigJSON: string(doc), CreatedAt: createdAt}, nil
}

// ListPresets returns every preset, newest first.
func (s *Store) ListPresets(ctx context.Context) ([]domain.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, config_json, created_at FROM presets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query presets: %w", err)
	}
	defer rows.Close()

	presets := []domain.Preset{}
	for rows.Next() {
		preset, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, preset)
	}
	return presets, rows.Err()
}

// GetPreset fetches one preset by id.
func (s *Store) GetPreset(ctx context.Context, id int64) (domain.Preset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, config_json, created_at FROM presets WHERE id = ?`, id)
	preset, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Preset{}, fmt.Errorf("preset %d: %w", id, ErrNotFound)
	}
	return preset, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (domain.Preset, error) {
	var (
		preset    domain.Preset
		createdAt string
	)
	if err := row.Scan(&preset.ID, &preset.Name, &preset.ConfigJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Preset{}, err
		}
		return domain.Preset{}, fmt.Errorf("scan preset: %w", err)
	}
	preset.CreatedAt = parseTime(createdAt)
	return preset, nil
}
