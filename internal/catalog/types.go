package catalog

// Difficulty is the declared difficulty level of a module.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// ModuleState is the declared gating state of a module in the manifest.
type ModuleState string

const (
	StateActive     ModuleState = "active"
	StateComingSoon ModuleState = "coming-soon"
	StateLocked     ModuleState = "locked"
)

// Valid reports whether s is one of the known module states.
func (s ModuleState) Valid() bool {
	switch s {
	case StateActive, StateComingSoon, StateLocked:
		return true
	}
	return false
}

// Manifest lists every module published by the content store.
type Manifest struct {
	Modules     []Module `json:"modules" yaml:"modules"`
	GeneratedAt string   `json:"generatedAt,omitempty" yaml:"generatedAt,omitempty"`
	Version     string   `json:"version,omitempty" yaml:"version,omitempty"`
}

// Module is a named unit of curriculum.
type Module struct {
	ID            string       `json:"id" yaml:"id"`
	Title         string       `json:"title" yaml:"title"`
	Description   string       `json:"description" yaml:"description"`
	Duration      string       `json:"duration,omitempty" yaml:"duration,omitempty"`
	Difficulty    Difficulty   `json:"difficulty" yaml:"difficulty"`
	Icon          string       `json:"icon" yaml:"icon"`
	Color         string       `json:"color" yaml:"color"`
	Status        ModuleState  `json:"status,omitempty" yaml:"status,omitempty"`
	Prerequisites []string     `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
	UnlockCost    *float64     `json:"unlockCost,omitempty" yaml:"unlockCost,omitempty"`
	Lessons       []LessonInfo `json:"lessons" yaml:"lessons"`
	Quiz          *QuizInfo    `json:"quiz,omitempty" yaml:"quiz,omitempty"`
}

// LessonByID returns the lesson with the given ID.
func (m Module) LessonByID(id string) (LessonInfo, bool) {
	for _, l := range m.Lessons {
		if l.ID == id {
			return l, true
		}
	}
	return LessonInfo{}, false
}

// Metadata strips lesson and quiz pointers from the module.
func (m Module) Metadata() ModuleMetadata {
	status := m.Status
	if status == "" {
		status = StateActive
	}
	return ModuleMetadata{
		ID:            m.ID,
		Title:         m.Title,
		Description:   m.Description,
		Duration:      m.Duration,
		Difficulty:    m.Difficulty,
		Icon:          m.Icon,
		Color:         m.Color,
		Status:        status,
		Prerequisites: m.Prerequisites,
		UnlockCost:    m.UnlockCost,
	}
}

// LessonInfo points at a lesson content file.
type LessonInfo struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Duration    string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Points      int    `json:"points,omitempty" yaml:"points,omitempty"`
	ContentFile string `json:"contentFile" yaml:"contentFile"`
}

// QuizInfo points at a quiz content file.
type QuizInfo struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Duration    string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Points      int    `json:"points,omitempty" yaml:"points,omitempty"`
	ContentFile string `json:"contentFile" yaml:"contentFile"`
}

// ModuleMetadata is the display-only view of a module used by listings.
type ModuleMetadata struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Duration      string      `json:"duration,omitempty"`
	Difficulty    Difficulty  `json:"difficulty"`
	Icon          string      `json:"icon"`
	Color         string      `json:"color"`
	Status        ModuleState `json:"status"`
	Prerequisites []string    `json:"prerequisites,omitempty"`
	UnlockCost    *float64    `json:"unlockCost,omitempty"`
}

// LessonContent is the rendered payload of a lesson.
type LessonContent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Section is one block of lesson content.
type Section struct {
	ID      string   `json:"id,omitempty"`
	Type    string   `json:"type"`
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// QuizContent is the rendered payload of a quiz.
type QuizContent struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	PassingScore int        `json:"passingScore,omitempty"`
	Questions    []Question `json:"questions"`
}

// Question is a single multiple-choice quiz question.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Lesson pairs lesson metadata with its fetched content.
type Lesson struct {
	Info    LessonInfo    `json:"info"`
	Content LessonContent `json:"content"`
}

// Quiz pairs quiz metadata with its fetched content.
type Quiz struct {
	Info    QuizInfo    `json:"info"`
	Content QuizContent `json:"content"`
}
