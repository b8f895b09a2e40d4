// Package cli implements the finlit command line tool used by content
// authors and operators.
package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-finlit/internal/catalog"
	"github.com/p-n-ai/pai-finlit/internal/progress"
)

// App holds settings shared by every command.
type App struct {
	ContentURL string
	Timeout    time.Duration
}

// NewRootCmd creates the top-level "finlit" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "finlit",
		Short:         "Financial literacy content and progress tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.ContentURL, "content-url", app.ContentURL, "base URL of the content store")

	root.AddCommand(
		newValidateCmd(),
		newModulesCmd(app),
		newStatusCmd(app),
		newUnlockCmd(app),
		newAchievementsCmd(app),
		newReportCmd(app),
	)

	return root
}

func (a *App) loader() *catalog.Loader {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return catalog.NewLoader(a.ContentURL, catalog.WithHTTPClient(&http.Client{Timeout: timeout}))
}

func readProgress(path string) (progress.UserProgress, error) {
	if path == "" {
		return progress.UserProgress{}, fmt.Errorf("--progress is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return progress.UserProgress{}, fmt.Errorf("reading progress: %w", err)
	}
	var p progress.UserProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return progress.UserProgress{}, fmt.Errorf("parsing progress %s: %w", path, err)
	}
	return p, nil
}

func writeProgress(path string, p progress.UserProgress) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing progress: %w", err)
	}
	return nil
}
