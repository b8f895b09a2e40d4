package progress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrProgressNotFound is returned when no progress is recorded for a user.
	ErrProgressNotFound = errors.New("progress not found")
	// ErrInvalidProgress is returned when a snapshot cannot be stored as given.
	ErrInvalidProgress = errors.New("invalid progress")
)

// validateProgress is the check every Store runs before writing.
func validateProgress(p UserProgress) error {
	if p.UserID == "" {
		return fmt.Errorf("user_id is required: %w", ErrInvalidProgress)
	}
	if p.TotalPoints < 0 {
		return fmt.Errorf("total points cannot be negative (%d): %w", p.TotalPoints, ErrInvalidProgress)
	}
	if p.LearningStreak < 0 {
		return fmt.Errorf("learning streak cannot be negative (%d): %w", p.LearningStreak, ErrInvalidProgress)
	}
	return nil
}

// Store persists learner progress snapshots.
type Store interface {
	GetProgress(ctx context.Context, userID string) (UserProgress, error)
	SaveProgress(ctx context.Context, p UserProgress) error
	// ApplyUnlock atomically spends cost points and records moduleID as
	// unlocked. It returns ErrNotUnlockable when the balance is too low and
	// ErrAlreadyUnlocked when the module was unlocked concurrently.
	ApplyUnlock(ctx context.Context, userID, moduleID string, cost int) (UserProgress, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	progress map[string]UserProgress
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		progress: make(map[string]UserProgress),
	}
}

func (s *MemoryStore) GetProgress(_ context.Context, userID string) (UserProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.progress[userID]
	if !ok {
		return UserProgress{}, fmt.Errorf("user %s: %w", userID, ErrProgressNotFound)
	}
	return p.Clone(), nil
}

func (s *MemoryStore) SaveProgress(_ context.Context, p UserProgress) error {
	if err := validateProgress(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[p.UserID] = p.Clone()
	return nil
}

func (s *MemoryStore) ApplyUnlock(_ context.Context, userID, moduleID string, cost int) (UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.progress[userID]
	if !ok {
		p = UserProgress{UserID: userID}
	}
	if slices.Contains(p.UnlockedModules, moduleID) {
		return p.Clone(), ErrAlreadyUnlocked
	}
	if p.TotalPoints < cost {
		return p.Clone(), ErrNotUnlockable
	}

	next := p.Clone()
	next.TotalPoints -= cost
	next.UnlockedModules = append(next.UnlockedModules, moduleID)
	s.progress[userID] = next
	return next.Clone(), nil
}
