package history

import (
	"sync"

	"ffmpeg-architect/internal/domain"
)

// DefaultCapacity is the number of snapshots retained for undo.
const DefaultCapacity = 50

// Stack is a bounded linear undo/redo history of configuration snapshots.
// The cursor always points at a valid entry, which is the current snapshot.
type Stack struct {
	mu       sync.RWMutex
	capacity int
	entries  []domain.Configuration
	cursor   int
}

// New creates a stack seeded with initial as its only entry.
func New(initial domain.Configuration, capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack{
		capacity: capacity,
		entries:  []domain.Configuration{initial.Clone()},
	}
}

// Record drops any redo entries, appends cfg, and makes it current. The
// oldest entry is evicted once the capacity is exceeded.
func (s *Stack) Record(cfg domain.Configuration) domain.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries[:s.cursor+1], cfg.Clone())
	s.cursor = len(s.entries) - 1
	if len(s.entries) > s.capacity {
		s.entries = append([]domain.Configuration(nil), s.entries[1:]...)
		s.cursor--
	}
	return s.entries[s.cursor].Clone()
}

// Undo moves the cursor back one entry; it is a no-op at the oldest entry.
func (s *Stack) Undo() (domain.Configuration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == 0 {
		return s.entries[s.cursor].Clone(), false
	}
	s.cursor--
	return s.entries[s.cursor].Clone(), true
}

// Redo moves the cursor forward one entry; it is a no-op at the newest entry.
func (s *Stack) Redo() (domain.Configuration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor == len(s.entries)-1 {
		return s.entries[s.cursor].Clone(), false
	}
	s.cursor++
	return s.entries[s.cursor].Clone(), true
}

// Current returns the snapshot under the cursor.
func (s *Stack) Current() domain.Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[s.cursor].Clone()
}

// CanUndo reports whether Undo would move the cursor.
func (s *Stack) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor > 0
}

// CanRedo reports whether Redo would move the cursor.
func (s *Stack) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor < len(s.entries)-1
}

// Len returns the number of retained snapshots.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Cursor returns the index of the current snapshot.
func (s *Stack) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}
