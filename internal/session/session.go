// Package session holds the current configuration and everything derived
// from it. All mutations go through the history stack.
package session

import (
	"errors"
	"fmt"
	"sync"

	"ffmpeg-architect/internal/command"
	"ffmpeg-architect/internal/domain"
	"ffmpeg-architect/internal/history"
)

// ErrNoAdvice is returned when applying advice before any was received.
var ErrNoAdvice = errors.New("no pending advice")

// Preview is the derived view of the current configuration.
type Preview struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Warnings []string `json:"warnings"`
	CanUndo  bool     `json:"canUndo"`
	CanRedo  bool     `json:"canRedo"`
}

// Session is the single writer of the current configuration.
type Session struct {
	mu      sync.Mutex
	history *history.Stack
	advice  *domain.AIAdvice
}

// New starts a session at initial.
func New(initial domain.Configuration) *Session {
	return &Session{history: history.New(initial.Normalize(), history.DefaultCapacity)}
}

// State returns the current configuration.
func (s *Session) State() domain.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Current()
}

// Current returns the configuration together with the preview derived from
// that same snapshot.
func (s *Session) Current() (domain.Configuration, Preview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.history.Current()
	return cfg, s.preview(cfg)
}

// Update merges a partial JSON document into the current configuration and
// records the result. Patches that change nothing are not recorded.
func (s *Session) Update(patch []byte) (domain.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.history.Current()
	next, err := current.MergePatch(patch)
	if err != nil {
		return current, err
	}
	return s.record(current, next), nil
}

// Replace records cfg wholesale.
func (s *Session) Replace(cfg domain.Configuration) domain.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(s.history.Current(), cfg.Normalize())
}

func (s *Session) record(current, next domain.Configuration) domain.Configuration {
	if next.Equal(current) {
		return current
	}
	return s.history.Record(next)
}

// Undo steps back one snapshot; moved is false at the oldest one.
func (s *Session) Undo() (cfg domain.Configuration, moved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Undo()
}

// Redo steps forward one snapshot; moved is false at the newest one.
func (s *Session) Redo() (cfg domain.Configuration, moved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Redo()
}

// Reset records the default configuration and drops pending advice. The
// language and AI backend selection are kept since they mirror settings.
func (s *Session) Reset() domain.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advice = nil

	current := s.history.Current()
	next := domain.DefaultConfiguration()
	next.Language = current.Language
	next.AISource = current.AISource
	next.OllamaServer = current.OllamaServer
	next.OllamaModel = current.OllamaModel
	return s.record(current, next)
}

// LoadPreset replaces the configuration with the preset's document.
func (s *Session) LoadPreset(preset domain.Preset) (domain.Configuration, error) {
	cfg, err := domain.ParseDocument([]byte(preset.ConfigJSON))
	if err != nil {
		return s.State(), fmt.Errorf("load preset %q: %w", preset.Name, err)
	}
	return s.Replace(cfg), nil
}

// SetAdvice stores advice for a later ApplyAdvice.
func (s *Session) SetAdvice(advice domain.AIAdvice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advice = &advice
}

// Advice returns the pending advice, if any.
func (s *Session) Advice() (domain.AIAdvice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advice == nil {
		return domain.AIAdvice{}, false
	}
	return *s.advice, true
}

// ApplyAdvice consumes the pending advice. fullOverride switches the builder
// to the advised command; otherwise the suggested partial state is merged
// and override mode is turned off.
func (s *Session) ApplyAdvice(fullOverride bool) (domain.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advice == nil {
		return s.history.Current(), ErrNoAdvice
	}
	advice := *s.advice
	s.advice = nil

	current := s.history.Current()
	if fullOverride {
		next := current.Clone()
		next.AIOverride = true
		next.AICommand = advice.Command
		return s.record(current, next), nil
	}
	if len(advice.SuggestedState) == 0 {
		return current, nil
	}

	next, err := current.MergePatch(advice.SuggestedState)
	if err != nil {
		return current, fmt.Errorf("apply suggested state: %w", err)
	}
	next.AIOverride = false
	return s.record(current, next), nil
}

// Preview derives the command line and warnings for the current state.
func (s *Session) Preview() Preview {
	_, preview := s.Current()
	return preview
}

// preview must be called with s.mu held.
func (s *Session) preview(cfg domain.Configuration) Preview {
	return Preview{
		Command:  command.Display(cfg),
		Args:     command.BuildArgs(cfg),
		Warnings: command.Validate(cfg),
		CanUndo:  s.history.CanUndo(),
		CanRedo:  s.history.CanRedo(),
	}
}
