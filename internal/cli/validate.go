package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AbdelazizMoustafa10m/Stepwise/internal/script"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pattern...]",
	Short: "Check wizard definitions for errors",
	Long: `Load every wizard matching the given doublestar patterns, resolve its
step order and report errors and warnings.

Patterns given on the command line are relative to the working directory.
Without patterns, the project's [project].wizards patterns are expanded in
its wizards directory.

Examples:
  stepwise validate
  stepwise validate 'wizards/**/*.toml'
  stepwise validate wizards/pair.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	resolved, _, err := loadAndResolveConfig(nil)
	if err != nil {
		return err
	}

	root, patterns := ".", args
	if len(patterns) == 0 {
		root = resolved.Config.Project.WizardsDir
		patterns = resolved.Config.Project.Wizards
	}

	files, err := script.Discover(root, patterns...)
	if err != nil {
		return fmt.Errorf("finding wizards: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no wizards found in %s", filepath.Clean(root))
	}

	out := cmd.OutOrStdout()
	writeHeader(out, "Wizard Validation")

	invalid := 0
	for _, f := range files {
		if !reportWizard(out, f) {
			invalid++
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d wizard(s), %d invalid\n", len(files), invalid)
	if invalid > 0 {
		return fmt.Errorf("%d of %d wizard(s) invalid", invalid, len(files))
	}
	return nil
}

// reportWizard loads and validates one file, prints the outcome and reports
// whether the wizard is usable.
func reportWizard(out io.Writer, path string) bool {
	def, err := script.LoadFile(path)
	if err != nil {
		fmt.Fprintf(out, "%s %s\n", styleErrorLbl.Render("✗"), path)
		fmt.Fprintf(out, "    %v\n", err)
		return false
	}

	result := script.Validate(def)
	mark := styleSuccess.Render("✓")
	if !result.IsValid() {
		mark = styleErrorLbl.Render("✗")
	}
	fmt.Fprintf(out, "%s %s %s\n", mark, path, styleMuted.Render(fmt.Sprintf("(%s, %d steps)", def.Name, len(def.Steps))))
	for _, issue := range result.Errors {
		fmt.Fprintf(out, "    %s %s\n", styleErrorLbl.Render("error"), formatIssue(issue))
	}
	for _, issue := range result.Warnings {
		fmt.Fprintf(out, "    %s %s\n", styleWarnLbl.Render("warning"), formatIssue(issue))
	}
	return result.IsValid()
}

func formatIssue(issue script.ValidationIssue) string {
	if issue.Step != "" {
		return fmt.Sprintf("[%s] step %q: %s", issue.Code, issue.Step, issue.Message)
	}
	return fmt.Sprintf("[%s] %s", issue.Code, issue.Message)
}
