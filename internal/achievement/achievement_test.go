package achievement_test

import (
	"slices"
	"testing"

	"github.com/p-n-ai/pai-finlit/internal/achievement"
	"github.com/p-n-ai/pai-finlit/internal/progress"
)

func ids(list []achievement.Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestGetEarnedAchievements_StreakOnly(t *testing.T) {
	u := progress.UserProgress{LearningStreak: 7}

	got := achievement.GetEarnedAchievements(u, 0, 0)
	want := []string{"welcome", "streak_3", "streak_7"}
	if !slices.Equal(ids(got), want) {
		t.Fatalf("earned = %v, want %v", ids(got), want)
	}

	sum := 0
	for _, id := range want {
		a, ok := achievement.ByID(id)
		if !ok {
			t.Fatalf("ByID(%q) not found", id)
		}
		sum += a.Points
	}
	if total := achievement.GetTotalAchievementPoints(u, 0, 0); total != sum {
		t.Errorf("GetTotalAchievementPoints() = %d, want %d", total, sum)
	}
}

func TestGetEarnedAchievements_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		user      progress.UserProgress
		lessons   int
		pct       int
		wantIn    []string
		wantNotIn []string
	}{
		{
			name:      "new learner",
			wantIn:    []string{"welcome"},
			wantNotIn: []string{"first_lesson", "streak_3", "halfway_there", "quiz_5", "points_1000"},
		},
		{
			name:      "lesson thresholds",
			lessons:   10,
			wantIn:    []string{"first_lesson", "lessons_5", "lessons_10"},
			wantNotIn: []string{"lessons_25", "lessons_50"},
		},
		{
			name:      "progress thresholds",
			pct:       50,
			wantIn:    []string{"halfway_there"},
			wantNotIn: []string{"course_complete"},
		},
		{
			name:   "course complete",
			pct:    100,
			wantIn: []string{"halfway_there", "course_complete"},
		},
		{
			name:      "quiz thresholds",
			user:      progress.UserProgress{CompletedQuizzes: []string{"a_quiz", "b_quiz", "c_quiz", "d_quiz", "e_quiz"}},
			wantIn:    []string{"quiz_5"},
			wantNotIn: []string{"quiz_10"},
		},
		{
			name:      "point thresholds",
			user:      progress.UserProgress{TotalPoints: 5000},
			wantIn:    []string{"points_1000", "points_5000"},
			wantNotIn: []string{"points_10000"},
		},
		{
			name: "mastery from concepts",
			user: progress.UserProgress{
				CompletedConcepts: []string{"budgeting-1", "budgeting-2", "budgeting-3", "budgeting-4", "budgeting-5", "saving-1"},
			},
			wantIn:    []string{"budgeting_master"},
			wantNotIn: []string{"saving_master", "credit_master", "investing_master"},
		},
		{
			name: "mastery from lessons when concepts are untracked",
			user: progress.UserProgress{
				CompletedLessons: []string{"credit-a", "credit-b", "credit-c", "credit-d", "credit-e"},
			},
			lessons: 5,
			wantIn:  []string{"credit_master", "lessons_5"},
		},
		{
			name:      "special tracking is never earned",
			user:      progress.UserProgress{LearningStreak: 365, TotalPoints: 100000},
			lessons:   500,
			pct:       100,
			wantNotIn: []string{"early_bird", "night_owl"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(achievement.GetEarnedAchievements(tt.user, tt.lessons, tt.pct))
			for _, id := range tt.wantIn {
				if !slices.Contains(got, id) {
					t.Errorf("%s not earned; earned = %v", id, got)
				}
			}
			for _, id := range tt.wantNotIn {
				if slices.Contains(got, id) {
					t.Errorf("%s earned unexpectedly", id)
				}
			}
		})
	}
}

func TestGetEarnedAchievements_CatalogOrder(t *testing.T) {
	u := progress.UserProgress{LearningStreak: 30, TotalPoints: 10000}
	got := ids(achievement.GetEarnedAchievements(u, 50, 100))

	var order []string
	for _, a := range achievement.All() {
		if slices.Contains(got, a.ID) {
			order = append(order, a.ID)
		}
	}
	if !slices.Equal(got, order) {
		t.Errorf("earned order = %v, want catalog order %v", got, order)
	}
}

func TestAll(t *testing.T) {
	all := achievement.All()
	want := []string{
		"welcome", "first_lesson", "lessons_5", "lessons_10", "lessons_25", "lessons_50",
		"streak_3", "streak_7", "streak_30", "halfway_there", "course_complete",
		"quiz_5", "quiz_10", "points_1000", "points_5000", "points_10000",
		"budgeting_master", "saving_master", "credit_master", "investing_master",
		"early_bird", "night_owl",
	}
	if !slices.Equal(ids(all), want) {
		t.Fatalf("catalog = %v, want %v", ids(all), want)
	}

	all[0].Title = "changed"
	if a, _ := achievement.ByID("welcome"); a.Title == "changed" {
		t.Error("All() must return a copy")
	}
}

func TestByID_Missing(t *testing.T) {
	if _, ok := achievement.ByID("nope"); ok {
		t.Error("ByID(nope) should not be found")
	}
}

func TestEvaluate(t *testing.T) {
	u := progress.UserProgress{LearningStreak: 3}
	s := achievement.Evaluate(u, 1, 0)

	if s.EarnedCount != 3 || len(s.Earned) != 3 {
		t.Errorf("EarnedCount = %d, want 3", s.EarnedCount)
	}
	if s.AvailableCount != len(achievement.All()) {
		t.Errorf("AvailableCount = %d, want %d", s.AvailableCount, len(achievement.All()))
	}
	if s.TotalPoints != achievement.GetTotalAchievementPoints(u, 1, 0) {
		t.Errorf("TotalPoints = %d, want %d", s.TotalPoints, achievement.GetTotalAchievementPoints(u, 1, 0))
	}
}
