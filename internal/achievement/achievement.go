// Package achievement evaluates the fixed badge catalog against a learner's
// progress snapshot. Earned badges are always recomputed, never stored.
package achievement

import (
	"github.com/p-n-ai/pai-finlit/internal/progress"
)

// Category groups achievements for display.
type Category string

const (
	CategoryMilestone Category = "milestone"
	CategoryLearning  Category = "learning"
	CategoryStreak    Category = "streak"
	CategoryProgress  Category = "progress"
	CategoryQuiz      Category = "quiz"
	CategoryPoints    Category = "points"
	CategoryMastery   Category = "mastery"
	CategorySpecial   Category = "special"
)

// masteryThreshold is the number of completed concepts a learner needs in a
// flagship module to earn its mastery badge.
const masteryThreshold = 5

// Predicate decides whether an achievement is earned.
type Predicate func(u progress.UserProgress, completedLessons, progressPct int) bool

// Achievement is one entry of the badge catalog.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Points      int       `json:"points"`
	Earned      Predicate `json:"-"`
}

func always(progress.UserProgress, int, int) bool { return true }

// never marks achievements that need tracking the progress record does not
// carry yet.
func never(progress.UserProgress, int, int) bool { return false }

func lessonsAtLeast(n int) Predicate {
	return func(_ progress.UserProgress, completed, _ int) bool { return completed >= n }
}

func streakAtLeast(n int) Predicate {
	return func(u progress.UserProgress, _, _ int) bool { return u.LearningStreak >= n }
}

func progressAtLeast(pct int) Predicate {
	return func(_ progress.UserProgress, _, p int) bool { return p >= pct }
}

func quizzesAtLeast(n int) Predicate {
	return func(u progress.UserProgress, _, _ int) bool { return len(u.CompletedQuizzes) >= n }
}

func pointsAtLeast(n int) Predicate {
	return func(u progress.UserProgress, _, _ int) bool { return u.TotalPoints >= n }
}

func mastered(modulePrefix string) Predicate {
	return func(u progress.UserProgress, _, _ int) bool {
		return u.ConceptCount(modulePrefix) >= masteryThreshold
	}
}

var catalog = []Achievement{
	{"welcome", "Welcome Aboard", "Started your financial literacy journey", CategoryMilestone, 10, always},
	{"first_lesson", "First Steps", "Completed your first lesson", CategoryLearning, 25, lessonsAtLeast(1)},
	{"lessons_5", "Getting the Hang of It", "Completed 5 lessons", CategoryLearning, 50, lessonsAtLeast(5)},
	{"lessons_10", "Dedicated Learner", "Completed 10 lessons", CategoryLearning, 100, lessonsAtLeast(10)},
	{"lessons_25", "Knowledge Seeker", "Completed 25 lessons", CategoryLearning, 250, lessonsAtLeast(25)},
	{"lessons_50", "Money Scholar", "Completed 50 lessons", CategoryLearning, 500, lessonsAtLeast(50)},
	{"streak_3", "On a Roll", "Learned 3 days in a row", CategoryStreak, 30, streakAtLeast(3)},
	{"streak_7", "Week Warrior", "Learned 7 days in a row", CategoryStreak, 70, streakAtLeast(7)},
	{"streak_30", "Habit Builder", "Learned 30 days in a row", CategoryStreak, 300, streakAtLeast(30)},
	{"halfway_there", "Halfway There", "Completed half of the course", CategoryProgress, 200, progressAtLeast(50)},
	{"course_complete", "Course Graduate", "Completed the entire course", CategoryProgress, 500, progressAtLeast(100)},
	{"quiz_5", "Quiz Taker", "Completed 5 quizzes", CategoryQuiz, 75, quizzesAtLeast(5)},
	{"quiz_10", "Quiz Champion", "Completed 10 quizzes", CategoryQuiz, 150, quizzesAtLeast(10)},
	{"points_1000", "Point Collector", "Earned 1,000 points", CategoryPoints, 100, pointsAtLeast(1000)},
	{"points_5000", "Point Hoarder", "Earned 5,000 points", CategoryPoints, 250, pointsAtLeast(5000)},
	{"points_10000", "Point Tycoon", "Earned 10,000 points", CategoryPoints, 500, pointsAtLeast(10000)},
	{"budgeting_master", "Budgeting Master", "Mastered the budgeting module", CategoryMastery, 200, mastered("budgeting")},
	{"saving_master", "Saving Master", "Mastered the saving module", CategoryMastery, 200, mastered("saving")},
	{"credit_master", "Credit Master", "Mastered the credit module", CategoryMastery, 200, mastered("credit")},
	{"investing_master", "Investing Master", "Mastered the investing module", CategoryMastery, 200, mastered("investing")},
	{"early_bird", "Early Bird", "Completed a lesson before 8 AM", CategorySpecial, 50, never},
	{"night_owl", "Night Owl", "Completed a lesson after 10 PM", CategorySpecial, 50, never},
}

// All returns a copy of the catalog in declaration order.
func All() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up a catalog entry.
func ByID(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// GetEarnedAchievements returns the earned achievements in catalog order.
func GetEarnedAchievements(u progress.UserProgress, completedLessons, progressPct int) []Achievement {
	earned := []Achievement{}
	for _, a := range catalog {
		if a.Earned(u, completedLessons, progressPct) {
			earned = append(earned, a)
		}
	}
	return earned
}

// GetTotalAchievementPoints sums the points of every earned achievement.
func GetTotalAchievementPoints(u progress.UserProgress, completedLessons, progressPct int) int {
	total := 0
	for _, a := range GetEarnedAchievements(u, completedLessons, progressPct) {
		total += a.Points
	}
	return total
}

// Summary is the evaluated achievement state of one learner.
type Summary struct {
	Earned         []Achievement `json:"earned"`
	TotalPoints    int           `json:"totalPoints"`
	EarnedCount    int           `json:"earnedCount"`
	AvailableCount int           `json:"availableCount"`
}

// Evaluate computes the full achievement summary.
func Evaluate(u progress.UserProgress, completedLessons, progressPct int) Summary {
	earned := GetEarnedAchievements(u, completedLessons, progressPct)
	total := 0
	for _, a := range earned {
		total += a.Points
	}
	return Summary{
		Earned:         earned,
		TotalPoints:    total,
		EarnedCount:    len(earned),
		AvailableCount: len(catalog),
	}
}
