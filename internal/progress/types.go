package progress

import (
	"slices"
	"strings"
	"time"
)

// Status is the derived state of a module for one learner.
type Status string

const (
	StatusLocked     Status = "locked"
	StatusAvailable  Status = "available"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

const (
	ReasonPrerequisites = "Complete prerequisite modules first"
	ReasonLocked        = "This module is locked"

	// ReasonComingSoon also clears UnlockCost, not just CanUnlock, so a
	// client never renders a price for a module that cannot be bought.
	ReasonComingSoon = "Coming soon"
)

// UserProgress is a snapshot of a learner's recorded progress, supplied by
// the identity layer. Engine functions never modify it.
//
// Quiz attempt ids follow the "<moduleId>_quiz..." convention and concept ids
// start with the id of the module they belong to. Both conventions are part
// of the stored data format and are matched by prefix.
type UserProgress struct {
	UserID            string    `json:"userId"`
	CompletedLessons  []string  `json:"completedLessons"`
	CompletedQuizzes  []string  `json:"completedQuizzes"`
	CompletedModules  []string  `json:"completedModules"`
	UnlockedModules   []string  `json:"unlockedModules"`
	CompletedConcepts []string  `json:"completedConcepts,omitempty"`
	TotalPoints       int       `json:"totalPoints"`
	LearningStreak    int       `json:"learningStreak"`
	JoinDate          time.Time `json:"joinDate"`
}

// QuizAttemptPrefix returns the id prefix shared by every quiz attempt
// recorded for a module.
func QuizAttemptPrefix(moduleID string) string {
	return moduleID + "_quiz"
}

// HasQuizAttempt reports whether any completed quiz id belongs to moduleID.
func (u UserProgress) HasQuizAttempt(moduleID string) bool {
	prefix := QuizAttemptPrefix(moduleID)
	for _, q := range u.CompletedQuizzes {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// Concepts returns completed concept ids. Identity records written before
// concepts were tracked separately only carry lesson ids, which are used
// instead.
func (u UserProgress) Concepts() []string {
	if u.CompletedConcepts != nil {
		return u.CompletedConcepts
	}
	return u.CompletedLessons
}

// ConceptCount counts completed concepts whose id starts with prefix.
func (u UserProgress) ConceptCount(prefix string) int {
	n := 0
	for _, c := range u.Concepts() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// IsUnlocked reports whether moduleID was explicitly purchased or granted.
func (u UserProgress) IsUnlocked(moduleID string) bool {
	return slices.Contains(u.UnlockedModules, moduleID)
}

// Clone returns a deep copy so callers can derive a new snapshot.
func (u UserProgress) Clone() UserProgress {
	c := u
	c.CompletedLessons = slices.Clone(u.CompletedLessons)
	c.CompletedQuizzes = slices.Clone(u.CompletedQuizzes)
	c.CompletedModules = slices.Clone(u.CompletedModules)
	c.UnlockedModules = slices.Clone(u.UnlockedModules)
	c.CompletedConcepts = slices.Clone(u.CompletedConcepts)
	return c
}

// ModuleStatus is the derived status of one module for one learner.
type ModuleStatus struct {
	Status           Status `json:"status"`
	Progress         int    `json:"progress"`
	LessonsCompleted int    `json:"lessonsCompleted"`
	LessonsTotal     int    `json:"lessonsTotal"`
	QuizCompleted    bool   `json:"quizCompleted"`
	CanUnlock        bool   `json:"canUnlock"`
	UnlockCost       *int   `json:"unlockCost,omitempty"`
	LockReason       string `json:"lockReason,omitempty"`
}
