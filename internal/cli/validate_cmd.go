package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-finlit/internal/catalog"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate module or manifest files (JSON or YAML)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				res, err := validateFile(path)
				if err != nil {
					return err
				}
				printValidation(out, path, res)
				if !res.IsValid {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed validation", failed, len(args))
			}
			return nil
		},
	}
}

// validateFile runs the manifest checks when the document has a top-level
// "modules" key and the module checks otherwise.
func validateFile(path string) (catalog.ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.ValidationResult{}, fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := catalog.ToJSON(data, catalog.FormatFromPath(path))
	if err != nil {
		return catalog.ValidationResult{}, fmt.Errorf("%s: %w", path, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return catalog.ValidateModuleJSON(raw), nil
	}
	if _, ok := probe["modules"]; !ok {
		return catalog.ValidateModuleJSON(raw), nil
	}

	res := catalog.ValidateManifestSchema(raw)
	m, err := catalog.DecodeManifest(raw, catalog.FormatJSON)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		res.IsValid = false
		return res, nil
	}
	return merge(res, catalog.ValidateManifest(m)), nil
}

func merge(a, b catalog.ValidationResult) catalog.ValidationResult {
	out := catalog.ValidationResult{
		Errors:   append(append([]string{}, a.Errors...), b.Errors...),
		Warnings: append(append([]string{}, a.Warnings...), b.Warnings...),
	}
	out.IsValid = len(out.Errors) == 0
	return out
}

func printValidation(w io.Writer, path string, res catalog.ValidationResult) {
	status := "ok"
	if !res.IsValid {
		status = "INVALID"
	}
	fmt.Fprintf(w, "%s: %s\n", path, status)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  error:   %s\n", e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}
