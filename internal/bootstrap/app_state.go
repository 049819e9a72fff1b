package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"

	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/session"
)

// StateView is the configuration together with its derived preview.
type StateView struct {
	Configuration domain.Configuration `json:"configuration"`
	Preview       session.Preview      `json:"preview"`
}

func (a *App) stateView() StateView {
	cfg, preview := a.Session.Current()
	return StateView{Configuration: cfg, Preview: preview}
}

// committed returns the state view after a mutation and saves any change to
// the settings-backed fields.
func (a *App) committed(before domain.Configuration) StateView {
	view := a.stateView()
	a.persistPassthrough(context.Background(), before, view.Configuration)
	return view
}

// GetState returns the current configuration and preview.
func (a *App) GetState() StateView {
	return a.stateView()
}

// UpdateConfiguration merges a partial configuration and records it.
func (a *App) UpdateConfiguration(patch map[string]any) (StateView, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return a.GetState(), fmt.Errorf("encode patch: %w", err)
	}
	before := a.Session.State()
	if _, err := a.Session.Update(data); err != nil {
		return a.GetState(), err
	}
	return a.committed(before), nil
}

// Undo steps back one snapshot.
func (a *App) Undo() StateView {
	before := a.Session.State()
	a.Session.Undo()
	return a.committed(before)
}

// Redo steps forward one snapshot.
func (a *App) Redo() StateView {
	before := a.Session.State()
	a.Session.Redo()
	return a.committed(before)
}

// Reset restores the default configuration.
func (a *App) Reset() StateView {
	before := a.Session.State()
	a.Session.Reset()
	return a.committed(before)
}

// Preview returns the command line, argument vector, and warnings.
func (a *App) Preview() session.Preview {
	return a.Session.Preview()
}

// persistPassthrough saves AI backend selection changes as settings so they
// survive restarts.
func (a *App) persistPassthrough(ctx context.Context, before, after domain.Configuration) {
	changes := map[string][2]string{
		domain.SettingAISource:     {string(before.AISource), string(after.AISource)},
		domain.SettingOllamaServer: {before.OllamaServer, after.OllamaServer},
		domain.SettingOllamaModel:  {before.OllamaModel, after.OllamaModel},
	}
	for key, pair := range changes {
		if pair[0] == pair[1] {
			continue
		}
		if err := a.Store.SetSetting(ctx, key, pair[1]); err != nil {
			a.logger.Warn("persist setting", "key", key, "error", err)
		}
	}
}
