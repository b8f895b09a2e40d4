// Package report exports a learner's module statuses and achievements as an
// XLSX workbook.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/p-n-ai/pai-finlit/internal/achievement"
	"github.com/p-n-ai/pai-finlit/internal/progress"
)

const (
	ModulesSheet      = "Modules"
	AchievementsSheet = "Achievements"
	SummarySheet      = "Summary"
)

var (
	moduleHeader      = []any{"Module ID", "Title", "Difficulty", "Status", "Progress %", "Lessons Completed", "Lessons Total", "Quiz Completed", "Can Unlock", "Unlock Cost", "Lock Reason"}
	achievementHeader = []any{"Achievement ID", "Title", "Category", "Points", "Earned"}
)

// Label turns an identifier such as "in-progress" or "budgeting_master" into
// a display label ("In Progress", "Budgeting Master").
func Label(id string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	return cases.Title(language.English).String(s)
}

// WriteXLSX writes the dashboard and achievement summary as a workbook with
// one sheet each for modules, achievements, and totals.
func WriteXLSX(w io.Writer, d progress.Dashboard, s achievement.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ModulesSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{AchievementsSheet, SummarySheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	moduleRows := make([][]any, 0, len(d.Modules))
	for _, m := range d.Modules {
		cost := ""
		if m.Status.UnlockCost != nil {
			cost = fmt.Sprint(*m.Status.UnlockCost)
		}
		moduleRows = append(moduleRows, []any{
			m.Module.ID,
			m.Module.Title,
			string(m.Module.Difficulty),
			Label(string(m.Status.Status)),
			m.Status.Progress,
			m.Status.LessonsCompleted,
			m.Status.LessonsTotal,
			yesNo(m.Status.QuizCompleted),
			yesNo(m.Status.CanUnlock),
			cost,
			m.Status.LockReason,
		})
	}
	if err := writeTable(f, ModulesSheet, moduleHeader, moduleRows, bold); err != nil {
		return err
	}

	earned := make(map[string]bool, len(s.Earned))
	for _, a := range s.Earned {
		earned[a.ID] = true
	}
	all := achievement.All()
	achievementRows := make([][]any, 0, len(all))
	for _, a := range all {
		achievementRows = append(achievementRows, []any{
			a.ID,
			a.Title,
			Label(string(a.Category)),
			a.Points,
			yesNo(earned[a.ID]),
		})
	}
	if err := writeTable(f, AchievementsSheet, achievementHeader, achievementRows, bold); err != nil {
		return err
	}

	summary := [][]any{
		{"User", d.UserID},
		{"Overall Progress %", d.OverallProgress},
		{"Completed Lessons", d.CompletedLessons},
		{"Total Points", d.TotalPoints},
		{"Achievements Earned", fmt.Sprintf("%d / %d", s.EarnedCount, s.AvailableCount)},
		{"Achievement Points", s.TotalPoints},
	}
	if err := writeTable(f, SummarySheet, nil, summary, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	row := 1
	if header != nil {
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("writing %s header: %w", sheet, err)
		}
		end, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", end, headerStyle); err != nil {
			return fmt.Errorf("styling %s header: %w", sheet, err)
		}
		row++
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
		}
		row++
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
