package catalog

import (
	"path"
	"strings"
)

const fallbackModuleID = "getting-started"

// FallbackManifest is served whenever the manifest cannot be fetched. It
// holds a single placeholder module so listings always have something to
// render.
func FallbackManifest() Manifest {
	return Manifest{
		Modules: []Module{{
			ID:          fallbackModuleID,
			Title:       "Getting Started with Money",
			Description: "Our lessons are loading. Please check back in a moment.",
			Duration:    "5 min",
			Difficulty:  Beginner,
			Icon:        "book-open",
			Color:       "#2563eb",
			Status:      StateActive,
			Lessons: []LessonInfo{{
				ID:          fallbackModuleID + "-welcome",
				Title:       "Welcome",
				Type:        "reading",
				Duration:    "5 min",
				Points:      10,
				ContentFile: "modules/" + fallbackModuleID + "/lessons/welcome.json",
			}},
			Quiz: &QuizInfo{
				ID:          fallbackModuleID + "_quiz",
				Title:       "Quick Check",
				Type:        "quiz",
				Duration:    "2 min",
				Points:      20,
				ContentFile: "modules/" + fallbackModuleID + "/quiz.json",
			},
		}},
		Version: "fallback",
	}
}

// FallbackLesson is served in place of a lesson whose content file could not
// be loaded.
func FallbackLesson(contentPath string) LessonContent {
	return LessonContent{
		ID:    contentID(contentPath),
		Title: "Content Unavailable",
		Sections: []Section{{
			ID:      "loading",
			Type:    "text",
			Title:   "Content loading",
			Content: "This lesson is temporarily unavailable. Please try again in a moment.",
		}},
	}
}

// FallbackQuiz is served in place of a quiz whose content file could not be
// loaded.
func FallbackQuiz(contentPath string) QuizContent {
	return QuizContent{
		ID:           contentID(contentPath),
		Title:        "Quiz Unavailable",
		PassingScore: 70,
		Questions: []Question{{
			ID:            "q1",
			Question:      "This quiz is temporarily unavailable. Are you ready to keep learning?",
			Options:       []string{"Yes", "Not yet"},
			CorrectAnswer: 0,
			Explanation:   "Check back shortly for the full quiz.",
		}},
	}
}

func contentID(contentPath string) string {
	base := path.Base(contentPath)
	if base == "." || base == "/" {
		return "unavailable"
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
