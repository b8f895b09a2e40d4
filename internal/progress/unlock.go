package progress

import (
	"errors"

	"github.com/p-n-ai/pai-finlit/internal/catalog"
)

var (
	// ErrNotUnlockable means the module has no price, the learner cannot
	// afford it, or it is coming soon.
	ErrNotUnlockable = errors.New("module cannot be unlocked")
	// ErrAlreadyUnlocked means the module is already in UnlockedModules.
	ErrAlreadyUnlocked = errors.New("module already unlocked")
)

// Unlock applies the explicit point purchase of a module to a snapshot and
// returns the resulting snapshot. The input is not modified.
func Unlock(moduleID string, m catalog.Module, u UserProgress) (UserProgress, error) {
	cost, err := UnlockPrice(moduleID, m, u)
	if err != nil {
		return u, err
	}
	next := u.Clone()
	next.TotalPoints -= cost
	next.UnlockedModules = append(next.UnlockedModules, moduleID)
	return next, nil
}

// UnlockPrice returns the number of points the learner would spend to unlock
// the module right now.
func UnlockPrice(moduleID string, m catalog.Module, u UserProgress) (int, error) {
	if u.IsUnlocked(moduleID) {
		return 0, ErrAlreadyUnlocked
	}
	st := GetModuleStatus(moduleID, m, u)
	if !st.CanUnlock || st.UnlockCost == nil {
		return 0, ErrNotUnlockable
	}
	return *st.UnlockCost, nil
}
