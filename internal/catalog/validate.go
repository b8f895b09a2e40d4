package catalog

import (
	"encoding/json"
	"fmt"
)

// ValidationResult reports structural problems with a module or manifest.
// Warnings never affect IsValid.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r ValidationResult) finish() ValidationResult {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
	r.IsValid = len(r.Errors) == 0
	return r
}

var requiredModuleFields = []string{"id", "title", "description", "difficulty", "icon", "color", "lessons"}

// ValidateModuleStructure checks a decoded module against the module
// contract.
func ValidateModuleStructure(m Module) ValidationResult {
	data, err := json.Marshal(m)
	if err != nil {
		var r ValidationResult
		r.errorf("encoding module: %v", err)
		return r.finish()
	}
	return ValidateModuleJSON(data)
}

// ValidateModuleJSON checks a raw JSON module definition. Working on the raw
// document keeps type mistakes (a string unlockCost, an object where lessons
// should be) visible.
func ValidateModuleJSON(data []byte) ValidationResult {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		var r ValidationResult
		r.errorf("Module is not a JSON object: %v", err)
		return r.finish()
	}
	return validateRawModule(raw)
}

func validateRawModule(raw map[string]any) ValidationResult {
	var r ValidationResult

	for _, field := range requiredModuleFields {
		if !truthy(raw[field]) {
			r.errorf("Missing required field: %s", field)
		}
	}

	if d, ok := raw["difficulty"]; ok && truthy(d) {
		s, isString := d.(string)
		if !isString || !Difficulty(s).Valid() {
			r.errorf("Invalid difficulty: %v (must be Beginner, Intermediate, or Advanced)", d)
		}
	}

	if lessons, ok := raw["lessons"]; ok && truthy(lessons) {
		list, isList := lessons.([]any)
		switch {
		case !isList:
			r.errorf("Lessons must be an array")
		case len(list) == 0:
			r.warnf("Module has no lessons")
		default:
			for i, item := range list {
				validateRawLesson(&r, i, item)
			}
		}
	}

	if quiz, ok := raw["quiz"]; !ok || !truthy(quiz) {
		r.warnf("Module has no quiz")
	} else if obj, isObj := quiz.(map[string]any); !isObj {
		r.errorf("Quiz must be an object")
	} else {
		if !truthy(obj["id"]) {
			r.errorf("Quiz: missing id")
		}
		if !truthy(obj["contentFile"]) {
			r.errorf("Quiz: missing contentFile")
		}
		warnLegacyPath(&r, "Quiz", obj["contentFile"])
	}

	if status, ok := raw["status"]; ok && truthy(status) {
		s, isString := status.(string)
		if !isString || !ModuleState(s).Valid() {
			r.warnf("Unknown status: %v (expected active, coming-soon, or locked)", status)
		}
	}

	if prereqs, ok := raw["prerequisites"]; ok && prereqs != nil {
		list, isList := prereqs.([]any)
		if !isList {
			r.errorf("Prerequisites must be an array")
		} else {
			for i, p := range list {
				if s, isString := p.(string); !isString || s == "" {
					r.errorf("Prerequisite %d must be a module id", i)
				}
			}
		}
	}

	if cost, ok := raw["unlockCost"]; ok && cost != nil {
		n, isNumber := cost.(float64)
		if !isNumber || n < 0 {
			r.errorf("unlockCost must be a non-negative number, got %v", cost)
		}
	}

	return r.finish()
}

func validateRawLesson(r *ValidationResult, index int, item any) {
	lesson, ok := item.(map[string]any)
	if !ok {
		r.errorf("Lesson %d: must be an object", index)
		return
	}
	label := fmt.Sprintf("Lesson %d", index)
	if id, ok := lesson["id"].(string); ok && id != "" {
		label = fmt.Sprintf("Lesson %d (%s)", index, id)
	}

	for _, field := range []string{"id", "title", "contentFile"} {
		if !truthy(lesson[field]) {
			r.errorf("%s: missing %s", label, field)
		}
	}
	for _, field := range []string{"type", "duration"} {
		if !truthy(lesson[field]) {
			r.warnf("%s: missing %s", label, field)
		}
	}
	warnLegacyPath(r, label, lesson["contentFile"])
}

// warnLegacyPath flags content files that sit outside the modules/<id>/
// layout. They still resolve, so this is never an error.
func warnLegacyPath(r *ValidationResult, label string, contentFile any) {
	if p, ok := contentFile.(string); ok && p != "" && !IsModularPath(p) {
		r.warnf("%s: legacy contentFile path %s", label, p)
	}
}

// ValidateManifest validates every module and the relationships between
// them. Module ids must be unique; prerequisites that name unknown modules
// are reported as warnings.
func ValidateManifest(m Manifest) ValidationResult {
	var r ValidationResult
	if len(m.Modules) == 0 {
		r.warnf("Manifest has no modules")
	}

	known := make(map[string]bool, len(m.Modules))
	for _, mod := range m.Modules {
		if mod.ID == "" {
			continue
		}
		if known[mod.ID] {
			r.errorf("Duplicate module id: %s", mod.ID)
		}
		known[mod.ID] = true
	}

	for i, mod := range m.Modules {
		label := mod.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		res := ValidateModuleStructure(mod)
		for _, e := range res.Errors {
			r.errorf("module %s: %s", label, e)
		}
		for _, w := range res.Warnings {
			r.warnf("module %s: %s", label, w)
		}
		for _, p := range mod.Prerequisites {
			if !known[p] {
				r.warnf("module %s: unknown prerequisite %s", label, p)
			}
		}
	}

	return r.finish()
}

// truthy mirrors how the content tooling treats "missing": absent keys, null,
// empty strings, zero, and false all count.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}
