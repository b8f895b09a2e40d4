package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-finlit/internal/achievement"
	"github.com/p-n-ai/pai-finlit/internal/catalog"
	"github.com/p-n-ai/pai-finlit/internal/progress"
	"github.com/p-n-ai/pai-finlit/internal/report"
)

func newModulesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List modules published by the content store",
		RunE: func(cmd *cobra.Command, args []string) error {
			modules := app.loader().DiscoverModules(cmd.Context())

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tSTATUS\tUNLOCK COST")
			for _, m := range modules {
				cost := "-"
				if m.UnlockCost != nil {
					cost = fmt.Sprint(*m.UnlockCost)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Title, m.Difficulty, report.Label(string(m.Status)), cost)
			}
			return tw.Flush()
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	var progressPath, moduleID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show module statuses for a progress snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readProgress(progressPath)
			if err != nil {
				return err
			}

			loader := app.loader()
			var modules []catalog.Module
			if moduleID != "" {
				m, ok := loader.Module(cmd.Context(), moduleID)
				if !ok {
					return fmt.Errorf("module %q not found", moduleID)
				}
				modules = []catalog.Module{m}
			} else {
				modules = loader.Modules(cmd.Context())
			}

			d := progress.BuildDashboard(modules, p)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODULE\tSTATUS\tPROGRESS\tLESSONS\tQUIZ\tNOTE")
			for _, s := range d.Modules {
				fmt.Fprintf(tw, "%s\t%s\t%d%%\t%d/%d\t%s\t%s\n",
					s.Module.ID,
					report.Label(string(s.Status.Status)),
					s.Status.Progress,
					s.Status.LessonsCompleted,
					s.Status.LessonsTotal,
					yesNo(s.Status.QuizCompleted),
					statusNote(s.Status),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&progressPath, "progress", "", "progress snapshot JSON file")
	cmd.Flags().StringVar(&moduleID, "module", "", "only show this module")
	return cmd
}

func statusNote(s progress.ModuleStatus) string {
	switch {
	case s.CanUnlock && s.UnlockCost != nil:
		return fmt.Sprintf("%s (unlock for %d points)", s.LockReason, *s.UnlockCost)
	case s.LockReason != "":
		return s.LockReason
	default:
		return ""
	}
}

func newUnlockCmd(app *App) *cobra.Command {
	var progressPath, moduleID, outPath string

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Spend points from a progress snapshot to unlock a module",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readProgress(progressPath)
			if err != nil {
				return err
			}
			if moduleID == "" {
				return fmt.Errorf("--module is required")
			}
			m, ok := app.loader().Module(cmd.Context(), moduleID)
			if !ok {
				return fmt.Errorf("module %q not found", moduleID)
			}

			next, err := progress.Unlock(moduleID, m, p)
			if err != nil {
				return fmt.Errorf("unlocking %s: %w", moduleID, err)
			}

			if outPath == "" {
				outPath = progressPath
			}
			if err := writeProgress(outPath, next); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unlocked %s for %d points, %d remaining\n",
				moduleID, p.TotalPoints-next.TotalPoints, next.TotalPoints)
			return nil
		},
	}

	cmd.Flags().StringVar(&progressPath, "progress", "", "progress snapshot JSON file")
	cmd.Flags().StringVar(&moduleID, "module", "", "module to unlock")
	cmd.Flags().StringVar(&outPath, "out", "", "where to write the updated snapshot (defaults to --progress)")
	return cmd
}

func newAchievementsCmd(app *App) *cobra.Command {
	var progressPath string

	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Show earned achievements for a progress snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readProgress(progressPath)
			if err != nil {
				return err
			}
			pct := progress.OverallProgress(app.loader().Modules(cmd.Context()), p)
			sum := achievement.Evaluate(p, len(p.CompletedLessons), pct)

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPOINTS")
			for _, a := range sum.Earned {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.ID, a.Title, report.Label(string(a.Category)), a.Points)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nEarned %d of %d achievements, %d points\n", sum.EarnedCount, sum.AvailableCount, sum.TotalPoints)
			return nil
		},
	}

	cmd.Flags().StringVar(&progressPath, "progress", "", "progress snapshot JSON file")
	return cmd
}

func newReportCmd(app *App) *cobra.Command {
	var progressPath, outPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export statuses and achievements to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readProgress(progressPath)
			if err != nil {
				return err
			}

			modules := app.loader().Modules(cmd.Context())
			d := progress.BuildDashboard(modules, p)
			sum := achievement.Evaluate(p, len(p.CompletedLessons), d.OverallProgress)

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("creating report: %w", err)
			}
			if err := report.WriteXLSX(f, d, sum); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing report: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d modules, %d achievements earned)\n", outPath, len(d.Modules), sum.EarnedCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&progressPath, "progress", "", "progress snapshot JSON file")
	cmd.Flags().StringVar(&outPath, "out", "report.xlsx", "output file")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
