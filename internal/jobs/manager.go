package jobs

import (
	"errors"
	"fmt"
	"sync"

	"ffmpeg-architect/internal/domain"
)

// ErrRunAlreadyActive is returned when starting a second concurrent run.
var ErrRunAlreadyActive = errors.New("run already active")

// ErrNoActiveRun is returned when cancel is requested while idle.
var ErrNoActiveRun = errors.New("no active run")

// ErrStaleRun is returned when a caller reports on a run that is no longer current.
var ErrStaleRun = errors.New("stale run")

// Manager tracks the single allowed active run and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Run
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Run{
			Status: domain.RunStatusIdle,
		},
	}
}

// Start creates a new run in running state with zero progress.
func (m *Manager) Start(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status == domain.RunStatusRunning {
		return ErrRunAlreadyActive
	}

	m.current = domain.Run{
		ID:     runID,
		Status: domain.RunStatusRunning,
	}
	return nil
}

// Finish moves run runID to a terminal status. Calls for any other run are
// rejected with ErrStaleRun.
func (m *Manager) Finish(runID string, status domain.RunStatus, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" {
		return fmt.Errorf("cannot finish without an active run")
	}
	if m.current.ID != runID {
		return fmt.Errorf("finish %s: %w", runID, ErrStaleRun)
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	m.current.Cancelling = false
	m.current.Error = message
	if status == domain.RunStatusSuccess {
		m.current.Progress.Percent = 100
	}
	return nil
}

// UpdateProgress replaces the live progress of run runID while it runs.
func (m *Manager) UpdateProgress(runID string, progress domain.ProgressSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID != runID || m.current.Status != domain.RunStatusRunning {
		return
	}
	m.current.Progress = progress
}

// Current returns a snapshot of the current run.
func (m *Manager) Current() domain.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears run metadata and returns the manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Run{Status: domain.RunStatusIdle}
}

// IsRunning reports whether a run is in progress.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Status == domain.RunStatusRunning
}

// Cancel flags the active run as cancelling. The run stays running, and so
// blocks Start, until its owner calls Finish.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status != domain.RunStatusRunning {
		return ErrNoActiveRun
	}
	m.current.Cancelling = true
	return nil
}

// isValidTransition enforces idle -> running -> terminal. Terminal states
// accept no further transitions except a new Start.
func isValidTransition(from, to domain.RunStatus) bool {
	if from != domain.RunStatusRunning {
		return false
	}
	switch to {
	case domain.RunStatusSuccess, domain.RunStatusFailed, domain.RunStatusCancelled:
		return true
	default:
		return false
	}
}
