// Package progress derives module status, completion, and unlock
// eligibility from a learner's recorded progress, and persists the explicit
// unlock action.
package progress

import (
	"math"
	"slices"

	"github.com/p-n-ai/pai-finlit/internal/catalog"
)

// GetModuleStatus computes the status of module m for learner u.
//
// Prerequisite gating and the declared module state are checked
// independently. Coming-soon is a hard stop that can never be bought past;
// unmet prerequisites and an explicit lock can be bypassed with points when
// the module has an unlock cost. An explicit unlock skips both soft gates.
func GetModuleStatus(moduleID string, m catalog.Module, u UserProgress) ModuleStatus {
	completed := lessonsCompleted(m, u)
	total := len(m.Lessons)
	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(completed) / float64(total)))
	}

	st := ModuleStatus{
		Status:           StatusAvailable,
		Progress:         pct,
		LessonsCompleted: completed,
		LessonsTotal:     total,
		QuizCompleted:    u.HasQuizAttempt(moduleID),
	}

	unlocked := u.IsUnlocked(moduleID)

	if len(m.Prerequisites) > 0 && !unlocked && !prerequisitesMet(m.Prerequisites, u.CompletedModules) {
		st.Status = StatusLocked
		st.LockReason = ReasonPrerequisites
		offerUnlock(&st, m, u)
	}

	switch m.Status {
	case catalog.StateComingSoon:
		st.Status = StatusLocked
		st.LockReason = ReasonComingSoon
		st.CanUnlock = false
		st.UnlockCost = nil
	case catalog.StateLocked:
		if !unlocked {
			st.Status = StatusLocked
			st.LockReason = ReasonLocked
			offerUnlock(&st, m, u)
		}
	}

	if st.Status == StatusAvailable || unlocked {
		switch {
		case st.Progress == 100 && st.QuizCompleted:
			st.Status = StatusCompleted
		case st.Progress > 0:
			st.Status = StatusInProgress
		}
	}

	return st
}

// ModuleStatuses computes the status of every module, keyed by module id.
func ModuleStatuses(modules []catalog.Module, u UserProgress) map[string]ModuleStatus {
	out := make(map[string]ModuleStatus, len(modules))
	for _, m := range modules {
		if _, seen := out[m.ID]; seen {
			continue
		}
		out[m.ID] = GetModuleStatus(m.ID, m, u)
	}
	return out
}

// OverallProgress is the rounded percentage of all catalog lessons the
// learner has completed.
func OverallProgress(modules []catalog.Module, u UserProgress) int {
	total, completed := 0, 0
	for _, m := range modules {
		total += len(m.Lessons)
		completed += lessonsCompleted(m, u)
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

func lessonsCompleted(m catalog.Module, u UserProgress) int {
	n := 0
	for _, l := range m.Lessons {
		if slices.Contains(u.CompletedLessons, l.ID) {
			n++
		}
	}
	return n
}

func prerequisitesMet(prereqs, completedModules []string) bool {
	for _, p := range prereqs {
		if !slices.Contains(completedModules, p) {
			return false
		}
	}
	return true
}

// offerUnlock marks a locked module as purchasable when it has a price the
// learner can afford. It never changes Status.
func offerUnlock(st *ModuleStatus, m catalog.Module, u UserProgress) {
	if m.UnlockCost == nil || float64(u.TotalPoints) < *m.UnlockCost {
		return
	}
	cost := pointsPrice(*m.UnlockCost)
	st.CanUnlock = true
	st.UnlockCost = &cost
}

// pointsPrice converts a manifest price to whole points. Fractional prices
// round up, which keeps "affordable" and "can pay" the same test for an
// integer balance.
func pointsPrice(cost float64) int {
	return int(math.Ceil(cost))
}
