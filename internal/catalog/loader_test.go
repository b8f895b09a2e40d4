package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/p-n-ai/pai-finlit/internal/catalog"
)

const testManifest = `{
  "version": "2024.1",
  "modules": [
    {
      "id": "budgeting",
      "title": "Budgeting Basics",
      "description": "Plan where your money goes",
      "duration": "45 min",
      "difficulty": "Beginner",
      "icon": "wallet",
      "color": "#16a34a",
      "lessons": [
        {"id": "budgeting-1", "title": "Why budget", "type": "reading", "duration": "10 min", "points": 10, "contentFile": "modules/budgeting/lessons/why.json"},
        {"id": "budgeting-2", "title": "50/30/20", "type": "reading", "duration": "10 min", "points": 10, "contentFile": "legacy-503020.json"}
      ],
      "quiz": {"id": "budgeting_quiz", "title": "Budget check", "contentFile": "modules/budgeting/quiz.json"}
    },
    {
      "id": "investing",
      "title": "Investing 101",
      "description": "Grow your savings",
      "difficulty": "Intermediate",
      "icon": "chart",
      "color": "#9333ea",
      "prerequisites": ["budgeting"],
      "unlockCost": 500,
      "lessons": []
    }
  ]
}`

const testLesson = `{"id": "why", "title": "Why budget", "sections": [{"type": "text", "content": "Because."}]}`

const testQuiz = `{"id": "budgeting_quiz", "title": "Budget check", "questions": [{"id": "q1", "question": "Is a budget a plan?", "options": ["Yes", "No"], "correctAnswer": 0}]}`

// contentServer serves a small content store and counts requests per path.
type contentServer struct {
	*httptest.Server
	hits  map[string]*atomic.Int64
	files map[string]string
}

func newContentServer(t *testing.T, files map[string]string) *contentServer {
	t.Helper()
	cs := &contentServer{
		hits:  make(map[string]*atomic.Int64),
		files: files,
	}
	for path := range files {
		cs.hits[path] = &atomic.Int64{}
	}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		body, ok := cs.files[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		cs.hits[path].Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(cs.Close)
	return cs
}

func defaultFiles() map[string]string {
	return map[string]string{
		"content/manifest.json":                      testManifest,
		"content/modules/budgeting/lessons/why.json": testLesson,
		"content/legacy-503020.json":                 testLesson,
		"content/modules/budgeting/quiz.json":        testQuiz,
	}
}

func TestLoader_LoadManifest(t *testing.T) {
	cs := newContentServer(t, defaultFiles())
	loader := catalog.NewLoader(cs.URL)

	m := loader.LoadManifest(context.Background())
	if len(m.Modules) != 2 {
		t.Fatalf("len(Modules) = %d, want 2", len(m.Modules))
	}
	if m.Version != "2024.1" {
		t.Errorf("Version = %q, want 2024.1", m.Version)
	}
	if m.Modules[1].UnlockCost == nil || *m.Modules[1].UnlockCost != 500 {
		t.Errorf("UnlockCost = %v, want 500", m.Modules[1].UnlockCost)
	}
}

func TestLoader_LoadManifest_Cached(t *testing.T) {
	cs := newContentServer(t, defaultFiles())
	loader := catalog.NewLoader(cs.URL)
	ctx := context.Background()

	loader.LoadManifest(ctx)
	loader.LoadManifest(ctx)
	loader.Modules(ctx)

	if got := cs.hits["content/manifest.json"].Load(); got != 1 {
		t.Errorf("manifest fetched %d times, want 1", got)
	}

	loader.ClearCache(ctx)
	loader.LoadManifest(ctx)

	if got := cs.hits["content/manifest.json"].Load(); got != 2 {
		t.Errorf("manifest fetched %d times after ClearCache, want 2", got)
	}
}

func TestLoader_IndependentCaches(t *testing.T) {
	cs := newContentServer(t, defaultFiles())
	ctx := context.Background()

	catalog.NewLoader(cs.URL).LoadManifest(ctx)
	catalog.NewLoader(cs.URL).LoadManifest(ctx)

	if got := cs.hits["content/manifest.json"].Load(); got != 2 {
		t.Errorf("manifest fetched %d times, want 2 (one per loader)", got)
	}
}

func TestLoader_LoadManifest_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "html with 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("  <html><body>index</body></html>"))
			},
		},
		{
			name: "html content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Write([]byte(`{"modules": []}`))
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"modules": [`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			m := catalog.NewLoader(server.URL).LoadManifest(context.Background())
			assertFallbackManifest(t, m)
		})
	}
}

func TestLoader_LoadManifest_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	m := catalog.NewLoader(url).LoadManifest(context.Background())
	assertFallbackManifest(t, m)
}

func TestLoader_LoadManifest_FallbackNotCached(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(testManifest))
	}))
	defer server.Close()

	loader := catalog.NewLoader(server.URL)
	ctx := context.Background()

	assertFallbackManifest(t, loader.LoadManifest(ctx))
	if m := loader.LoadManifest(ctx); len(m.Modules) != 2 {
		t.Errorf("second LoadManifest() modules = %d, want 2 after store recovered", len(m.Modules))
	}
}

func TestLoader_LoadManifest_SkipsBadModule(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{"string unlock cost", `"unlockCost": "500"`},
		{"string prerequisites", `"prerequisites": "budgeting"`},
		{"object lessons", `"lessons": {"id": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := `{"version": "2024.2", "modules": [
				{"id": "budgeting", "title": "Budgeting Basics", "lessons": [{"id": "budgeting-1", "title": "Why", "contentFile": "why.json"}]},
				{"id": "investing", "title": "Investing 101", ` + tt.field + `}
			]}`
			cs := newContentServer(t, map[string]string{"content/manifest.json": manifest})
			loader := catalog.NewLoader(cs.URL)
			ctx := context.Background()

			m := loader.LoadManifest(ctx)
			if m.Version != "2024.2" {
				t.Errorf("Version = %q, want 2024.2 (fallback served)", m.Version)
			}
			if len(m.Modules) != 1 || m.Modules[0].ID != "budgeting" {
				t.Fatalf("modules = %+v, want only budgeting", m.Modules)
			}
			if _, found := loader.Module(ctx, "budgeting"); !found {
				t.Error("budgeting should still be served")
			}
		})
	}
}

func TestLoader_LoadManifest_FractionalUnlockCost(t *testing.T) {
	manifest := `{"modules": [{"id": "investing", "title": "Investing 101", "unlockCost": 99.5, "lessons": []}]}`
	cs := newContentServer(t, map[string]string{"content/manifest.json": manifest})

	m, found := catalog.NewLoader(cs.URL).Module(context.Background(), "investing")
	if !found {
		t.Fatal("Module(investing) not found")
	}
	if m.UnlockCost == nil || *m.UnlockCost != 99.5 {
		t.Errorf("UnlockCost = %v, want 99.5", m.UnlockCost)
	}
}

func TestLoader_HealthCheck_ContentTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"modules": [], "pad": "`))
		w.Write([]byte(strings.Repeat("x", 5<<20)))
		w.Write([]byte(`"}`))
	}))
	defer server.Close()

	loader := catalog.NewLoader(server.URL)
	err := loader.HealthCheck(context.Background())
	if !errors.Is(err, catalog.ErrContentTooLarge) {
		t.Errorf("HealthCheck() error = %v, want ErrContentTooLarge", err)
	}
	assertFallbackManifest(t, loader.LoadManifest(context.Background()))
}

func TestLoader_HealthCheck(t *testing.T) {
	cs := newContentServer(t, defaultFiles())
	if err := catalog.NewLoader(cs.URL).HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func assertFallbackManifest(t *testing.T, m catalog.Manifest) {
	t.Helper()
	if len(m.Modules) != 1 {
		t.Fatalf("fallback modules = %d, want 1", len(m.Modules))
	}
	res := catalog.ValidateModuleStructure(m.Modules[0])
	if !res.IsValid {
		t.Errorf("fallback module invalid: %v", res.Errors)
	}
	if len(m.Modules[0].Lessons) == 0 || m.Modules[0].Quiz == nil {
		t.Error("fallback module should carry a lesson and a quiz")
	}
}

func TestLoader_Module(t *testing.T) {
	cs := newContentServer(t, defaultFiles())
	loader := catalog.NewLoader(cs.URL)
	ctx := context.Background()

	m, found := loader.Module(ctx, "investing")
	if !found {
		t.Fatal("Module(investing) not found")
	}
	if m.Title != "Investing 101" {
		t.Errorf("Title = %q, want Investing 101", m.Title)
	}

	if _, found := loader.Module(ctx, "nonexistent"); found {
		t.Error("Module(nonexistent) should not be found")
	}
}

func TestLoader_Module_FirstMatchWins(t *testing.T) {
	files := map[string]string{
		"content/manifest.json": `{"modules": [
			{"id": "dup", "title": "First", "lessons": []},
			{"id": "dup", "title": "Second", "lessons": []}
		]}`,
	}
	cs := newContentServer(t, files)

	m, found := catalog.NewLoader(cs.URL).Module(context.Background(), "dup")
	if !found {
		t.Fatal("Module(dup) not found")
	}
	if m.Title != "First" {
		t.Errorf("Title = %q, want First", m.Title)
	}
}

func TestLoader_Lesson(t *testing.T) {
	cs := newContentServer(t, defaultFiles())
	loader := catalog.NewLoader(cs.URL)
	ctx := context.Background()

	tests := []struct {
		name      string
		moduleID  string
		lessonID  string
		wantFound bool
		wantPath  string
	}{
		{"modular path", "budgeting", "budgeting-1", true, "content/modules/budgeting/lessons/why.json"},
		{"legacy path", "budgeting", "budgeting-2", true, "content/legacy-503020.json"},
		{"unknown lesson", "budgeting", "budgeting-9", false, ""},
		{"unknown module", "nope", "budgeting-1", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson, found := loader.Lesson(ctx, tt.moduleID, tt.lessonID)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if !found {
				return
			}
			if lesson.Content.Title != "Why budget" {
				t.Errorf("Content.Title = %q, want Why budget", lesson.Content.Title)
			}
			if got := cs.hits[tt.wantPath].Load(); got == 0 {
				t.Errorf("%s was never fetched", tt.wantPath)
			}
		})
	}
}

func TestLoader_Quiz(t *testing.T) {
	cs := newContentServer(t, defaultFiles())
	loader := catalog.NewLoader(cs.URL)
	ctx := context.Background()

	quiz, found := loader.Quiz(ctx, "budgeting")
	if !found {
		t.Fatal("Quiz(budgeting) not found")
	}
	if len(quiz.Content.Questions) != 1 {
		t.Errorf("questions = %d, want 1", len(quiz.Content.Questions))
	}

	if _, found := loader.Quiz(ctx, "investing"); found {
		t.Error("Quiz(investing) should not be found, module has no quiz")
	}
}

func TestLoader_ContentFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"404", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"html body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<!doctype html><html></html>"))
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{nope")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			loader := catalog.NewLoader(server.URL)
			ctx := context.Background()

			lesson := loader.LoadLessonContent(ctx, "content/modules/x/lessons/intro.json")
			if lesson.ID != "intro" {
				t.Errorf("lesson.ID = %q, want intro", lesson.ID)
			}
			if len(lesson.Sections) != 1 || lesson.Sections[0].Content == "" {
				t.Errorf("fallback lesson sections = %+v, want one populated section", lesson.Sections)
			}

			quiz := loader.LoadQuizContent(ctx, "content/modules/x/quiz.json")
			if len(quiz.Questions) != 1 || len(quiz.Questions[0].Options) == 0 {
				t.Errorf("fallback quiz questions = %+v, want one question with options", quiz.Questions)
			}
		})
	}
}

func TestLoader_PrefetchModule(t *testing.T) {
	cs := newContentServer(t, defaultFiles())
	loader := catalog.NewLoader(cs.URL)

	lessons, quiz, found := loader.PrefetchModule(context.Background(), "budgeting")
	if !found {
		t.Fatal("PrefetchModule(budgeting) not found")
	}
	if len(lessons) != 2 {
		t.Fatalf("lessons = %d, want 2", len(lessons))
	}
	if lessons[0].Info.ID != "budgeting-1" || lessons[1].Info.ID != "budgeting-2" {
		t.Errorf("lessons out of order: %s, %s", lessons[0].Info.ID, lessons[1].Info.ID)
	}
	if quiz == nil || quiz.Info.ID != "budgeting_quiz" {
		t.Errorf("quiz = %+v, want budgeting_quiz", quiz)
	}
}

func TestLoader_DiscoverModules(t *testing.T) {
	cs := newContentServer(t, defaultFiles())

	meta := catalog.NewLoader(cs.URL).DiscoverModules(context.Background())
	if len(meta) != 2 {
		t.Fatalf("len = %d, want 2", len(meta))
	}
	for _, m := range meta {
		if m.Status != catalog.StateActive {
			t.Errorf("%s status = %q, want active default", m.ID, m.Status)
		}
	}
}
